package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-admissions-api/internal/middleware"
	"github.com/noah-isme/campus-admissions-api/internal/models"
)

// Handlers groups the API handlers mounted under the versioned prefix.
type Handlers struct {
	Auth         *AuthHandler
	Inquiry      *InquiryHandler
	Enrollment   *EnrollmentHandler
	Note         *NoteHandler
	Registration *RegistrationHandler
	Document     *DocumentHandler
	User         *UserHandler
}

// RouteDeps carries the cross-cutting collaborators the routes need.
type RouteDeps struct {
	Tokens middleware.TokenValidator
	Audit  middleware.AuditWriter
	Logger *zap.Logger
}

var (
	allStaff       = []models.UserRole{models.RoleAdmin, models.RoleCounselor, models.RoleRegistrar}
	intakeRoles    = []models.UserRole{models.RoleAdmin, models.RoleCounselor}
	workflowRoles  = []models.UserRole{models.RoleAdmin, models.RoleCounselor, models.RoleRegistrar}
	registrarRoles = []models.UserRole{models.RoleAdmin, models.RoleRegistrar}
)

// Register mounts every API route on api.
func Register(api *gin.RouterGroup, h Handlers, deps RouteDeps) {
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, deps.Logger, action, resource)
	}
	staff := middleware.RBAC(allStaff...)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", middleware.JWT(deps.Tokens), h.Auth.Logout)
	auth.GET("/me", middleware.JWT(deps.Tokens), h.Auth.Me)

	// The signed token authorizes the download; a bearer token is optional.
	api.GET("/documents/download", middleware.OptionalJWT(deps.Tokens), h.Document.Download)

	secured := api.Group("", middleware.JWT(deps.Tokens))

	inquiries := secured.Group("/inquiries")
	inquiries.GET("", staff, h.Inquiry.List)
	inquiries.POST("", middleware.RBAC(intakeRoles...), h.Inquiry.Create)
	inquiries.GET("/:id", staff, h.Inquiry.Get)
	inquiries.PATCH("/:id/status", middleware.RBAC(intakeRoles...), h.Inquiry.UpdateStatus)
	inquiries.PUT("/:id/action-plan", middleware.RBAC(intakeRoles...), h.Inquiry.ReplaceActionPlan)
	inquiries.POST("/:id/action-plan/:taskId/complete", middleware.RBAC(intakeRoles...), h.Inquiry.CompleteTask)
	inquiries.POST("/:id/promote", middleware.RBAC(intakeRoles...), h.Inquiry.Promote)

	enrollments := secured.Group("/enrollments")
	enrollments.GET("", staff, h.Enrollment.List)
	enrollments.POST("", middleware.RBAC(workflowRoles...), h.Enrollment.Create)
	enrollments.GET("/pipeline", staff, h.Enrollment.Pipeline)
	enrollments.GET("/export", middleware.RBAC(registrarRoles...), audit(models.AuditActionExport, "enrollments"), h.Enrollment.Export)
	enrollments.GET("/:id", staff, h.Enrollment.Get)

	transitions := middleware.RBAC(workflowRoles...)
	enrollments.POST("/:id/advance", transitions, audit(models.AuditActionStageTransition, "enrollment"), h.Enrollment.Advance)
	enrollments.POST("/:id/retreat", transitions, audit(models.AuditActionStageTransition, "enrollment"), h.Enrollment.Retreat)
	enrollments.POST("/:id/steps/:step/complete", transitions, audit(models.AuditActionStageTransition, "enrollment"), h.Enrollment.CompleteStep)

	enrollments.GET("/:id/notes", staff, h.Note.List)
	enrollments.POST("/:id/notes", staff, audit(models.AuditActionNoteAppend, "enrollment"), h.Note.Create)

	enrollments.GET("/:id/registration", staff, h.Registration.Get)
	enrollments.PUT("/:id/registration", middleware.RBAC(registrarRoles...), audit(models.AuditActionRegistrationSave, "enrollment"), h.Registration.Save)
	enrollments.POST("/:id/registration/finalize", middleware.RBAC(registrarRoles...), h.Registration.Finalize)

	enrollments.GET("/:id/documents", staff, h.Document.List)
	enrollments.POST("/:id/documents", staff, h.Document.Upload)

	// Only SUPERADMIN manages staff accounts.
	users := secured.Group("/users", middleware.RBAC())
	users.GET("", h.User.List)
	users.POST("", h.User.Create)
	users.GET("/:id", h.User.Get)
	users.PATCH("/:id", h.User.Update)
	users.DELETE("/:id", h.User.Deactivate)
}
