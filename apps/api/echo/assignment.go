package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mkabeya/kazi/core/assignment"
	"github.com/mkabeya/kazi/core/export"
	"github.com/mkabeya/kazi/core/teacher"
	"github.com/mkabeya/kazi/core/work"
)

type assignmentApi struct {
	teacherSvc *teacher.Service
	svc        *assignment.Service
	workSvc    *work.Service
	exportSvc  *export.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := assignmentApi{
		teacherSvc: opts.TeacherSvc,
		svc:        opts.AssignmentSvc,
		workSvc:    opts.WorkSvc,
		exportSvc:  opts.ExportSvc,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create)

	dg := ag.Group("/:id")
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/download", api.download)
}

// Handlers

func (api *assignmentApi) query(ctx echo.Context) error {
	tchr, err := getContextTeacher(ctx, api.teacherSvc)
	if err != nil {
		return errors.Wrap(err, "getting context teacher")
	}

	asgs, err := api.svc.Query(ctx.Request().Context(), tchr.ID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}

	details := make([]AssignmentDetail, 0, len(asgs))
	for _, asg := range asgs {
		works, err := api.workSvc.QueryByAssignment(ctx.Request().Context(), asg.ID)
		if err != nil {
			return errors.Wrap(err, "querying assignment work")
		}
		if works == nil {
			works = []work.StudentWork{}
		}
		var finalCount int
		for _, w := range works {
			if w.IsFinal() {
				finalCount++
			}
		}
		details = append(details, AssignmentDetail{
			Assignment:  asg,
			FinalCount:  finalCount,
			Submissions: works,
		})
	}

	return ctx.JSON(http.StatusOK, AssignmentListResponse{
		Assignments: details,
		ActiveCount: tchr.ActiveCount,
	})
}

func (api *assignmentApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}

	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data UpdateAssignmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignmentRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	var asg assignment.Assignment
	switch data.Action {
	case "close":
		asg, err = api.svc.Close(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	case "reopen":
		asg, err = api.svc.Reopen(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	}
	if err != nil {
		return errors.Wrap(err, "updating assignment status")
	}

	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) download(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var query DownloadRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DownloadRequest")
	}
	if query.Type == "" {
		query.Type = export.KindAll
	}
	if err := api.validate.Struct(&query); err != nil {
		return err
	}

	file, err := api.exportSvc.Export(
		ctx.Request().Context(),
		claims.Subject,
		ctx.Param("id"),
		export.Filter{Kind: query.Type, Student: query.Student},
	)
	if err != nil {
		return errors.Wrap(err, "exporting submissions")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	return ctx.Blob(http.StatusOK, file.ContentType, file.Data)
}

type (
	AssignmentDetail struct {
		assignment.Assignment
		FinalCount  int                `json:"final_count"`
		Submissions []work.StudentWork `json:"submissions"`
	}

	AssignmentListResponse struct {
		Assignments []AssignmentDetail `json:"assignments"`
		ActiveCount int                `json:"active_count"`
	}

	UpdateAssignmentRequest struct {
		Action string `json:"action" validate:"required,oneof=close reopen"`
	}

	DownloadRequest struct {
		Type    string `query:"type" validate:"omitempty,oneof=all drafts finals"`
		Student string `query:"student"`
	}
)
