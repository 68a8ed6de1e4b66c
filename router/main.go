package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/handlers"
	auth_handlers "github.com/usched/usched-api/handlers/auth"
	college_handlers "github.com/usched/usched-api/handlers/college"
	curriculum_handlers "github.com/usched/usched-api/handlers/curriculum"
	professor_handlers "github.com/usched/usched-api/handlers/professor"
	room_handlers "github.com/usched/usched-api/handlers/room"
	section_handlers "github.com/usched/usched-api/handlers/section"
	user_handlers "github.com/usched/usched-api/handlers/user"
	"github.com/usched/usched-api/model"
	"github.com/usched/usched-api/services/curriculum"
	"github.com/usched/usched-api/services/identity"
	"github.com/usched/usched-api/utils/auth"
	"github.com/usched/usched-api/utils/middleware"
	"gorm.io/gorm"
)

// Deps is everything the routes need, built once by the app package.
type Deps struct {
	DB         *gorm.DB
	Store      handlers.HealthChecker
	JWT        *auth.JWTManager
	BruteForce *middleware.BruteForceProtection // nil disables lockouts
	Identity   *identity.Service
	Curriculum *curriculum.Service
	Mailer     auth_handlers.ResetMailer
}

func SetupRoutes(app *fiber.App, deps Deps) {
	authMiddleware := middleware.NewAuthMiddleware(deps.JWT)

	healthHandler := handlers.NewHealthHandler(deps.Store)
	authHandler := auth_handlers.NewAuthHandler(deps.DB, deps.JWT, deps.BruteForce, deps.Identity, deps.Mailer)
	curriculumHandler := curriculum_handlers.NewCurriculumHandler(deps.Curriculum)
	professorHandler := professor_handlers.NewProfessorHandler(deps.Identity, deps.Curriculum)
	collegeHandler := college_handlers.NewCollegeHandler(deps.DB)
	roomHandler := room_handlers.NewRoomHandler(deps.DB)
	sectionHandler := section_handlers.NewSectionHandler(deps.DB)
	userHandler := user_handlers.NewUserHandler(deps.Identity)

	requireAdmin := authMiddleware.RequireRole(model.RoleAdmin)
	requireManager := authMiddleware.RequireRole(model.RoleAdmin, model.RoleDean, model.RoleChair)

	// Health check endpoint (public)
	app.Get("/health", healthHandler.CheckHealth)

	api := app.Group("/api")

	// Session routes (public; dashboard checks its own token)
	api.Post("/login", deps.BruteForce.CheckAndRecordAttempt(), authHandler.Login)
	api.Post("/logout", authHandler.Logout)
	api.Get("/dashboard", authHandler.Dashboard)

	reset := api.Group("/password-reset")
	reset.Post("/request", authHandler.ForgotPassword)
	reset.Post("/reset", authHandler.ResetPassword)

	// Curriculum
	curriculumGroup := api.Group("/curriculum", authMiddleware.Required())
	curriculumGroup.Post("/upload", curriculumHandler.Upload)
	curriculumGroup.Get("/", curriculumHandler.GetCurriculum)
	curriculumGroup.Get("/years", curriculumHandler.GetYears)
	curriculumGroup.Get("/courses", curriculumHandler.GetCollegeCourses)
	curriculumGroup.Get("/uploads", curriculumHandler.ListUploads)

	// Professors: reads for any session, writes for admins and college heads
	professors := api.Group("/professors", authMiddleware.Required())
	professors.Get("/", professorHandler.ListProfessors)
	professors.Get("/subjects", professorHandler.ListSubjects)
	professors.Get("/:id", professorHandler.GetProfessor)
	professors.Post("/", requireManager, professorHandler.CreateProfessor)
	professors.Put("/:id", requireManager, professorHandler.UpdateProfessor)
	professors.Delete("/:id", requireManager, professorHandler.DeleteProfessor)

	// Colleges
	colleges := api.Group("/colleges", authMiddleware.Required())
	colleges.Get("/", collegeHandler.ListColleges)
	colleges.Get("/:college_id/programs", collegeHandler.ListPrograms)
	colleges.Post("/", requireAdmin, collegeHandler.CreateCollege)
	colleges.Put("/:id", requireAdmin, collegeHandler.UpdateCollege)
	colleges.Delete("/programs/:id", requireAdmin, collegeHandler.DeleteProgram)
	colleges.Delete("/:id", requireAdmin, collegeHandler.DeleteCollege)

	// Rooms
	rooms := api.Group("/rooms", authMiddleware.Required())
	rooms.Get("/", roomHandler.ListRooms)
	rooms.Get("/room-options", roomHandler.RoomOptions)
	rooms.Get("/latest-room/:building_id/:room_type", roomHandler.LatestRoom)
	rooms.Post("/", roomHandler.CreateRoom)
	rooms.Put("/:id", roomHandler.UpdateRoom)

	// Sections
	sections := api.Group("/sections", authMiddleware.Required())
	sections.Get("/programs", sectionHandler.ListPrograms)
	sections.Get("/", sectionHandler.ListSections)
	sections.Post("/", sectionHandler.CreateSection)
	sections.Put("/:id", sectionHandler.UpdateSection)
	sections.Delete("/:id", sectionHandler.DeleteSection)

	// Account management (admin only)
	users := api.Group("/users", authMiddleware.Required(), requireAdmin)
	users.Get("/", userHandler.ListUsers)
	users.Post("/", userHandler.CreateAdmin)
	users.Post("/deanchair", userHandler.CreateDeanChair)
	users.Put("/admin/:userId", userHandler.UpdateAdmin)
	users.Put("/deanchair/:userId", userHandler.UpdateDeanChair)
	users.Put("/professor/:userId", userHandler.UpdateProfessor)
	users.Put("/professor/:userId/send-password", userHandler.SendPassword)
}
