package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"shiftledger/internal/config"
	"shiftledger/internal/domain"
	"shiftledger/internal/email"
	handler "shiftledger/internal/handler/http"
	"shiftledger/internal/middleware"
	"shiftledger/internal/pkg/clock"
	"shiftledger/internal/pkg/database"
	"shiftledger/internal/pkg/jwt"
	"shiftledger/internal/repository"
	"shiftledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer db.Close()

	codec := jwt.NewCodec(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry, cfg.JWT.SetupExpiry, cfg.JWT.Issuer)

	users := repository.NewUserRepository(db)
	companies := repository.NewCompanyRepository(db)
	sessions := repository.NewSessionRepository(db)
	audit := repository.NewAuditLogRepository()
	timeEntries := repository.NewTimeEntryRepository(db)
	cashDrawers := repository.NewCashDrawerRepository(db)
	leaves := repository.NewLeaveRepository(db)
	shifts := repository.NewShiftRepository(db)
	shiftTemplates := repository.NewShiftTemplateRepository(db)
	payroll := repository.NewPayrollRepository(db)
	rolePermissions := repository.NewRolePermissionRepository(db)

	authUC := usecase.NewAuthUseCase(db, users, companies, sessions, audit, codec, clock.SystemClock{}, email.LogSender{})
	punchUC := usecase.NewPunchUseCase(db, users, companies, timeEntries, cashDrawers, audit, clock.SystemClock{})
	cashDrawerUC := usecase.NewCashDrawerUseCase(db, cashDrawers, companies, audit)
	scheduleUC := usecase.NewScheduleUseCase(db, shifts, shiftTemplates, users)
	payrollUC := usecase.NewPayrollUseCase(db, payroll, timeEntries, leaves, users, companies, audit)

	authHandler := handler.NewAuthHandler(authUC)
	kioskHandler := handler.NewKioskHandler(companies, punchUC)
	timeHandler := handler.NewTimeHandler(punchUC, timeEntries, companies)
	cashDrawerHandler := handler.NewCashDrawerHandler(cashDrawerUC)
	shiftHandler := handler.NewShiftHandler(scheduleUC, shiftTemplates)
	payrollHandler := handler.NewPayrollHandler(payrollUC)
	userHandler := handler.NewUserHandler(users, codec)
	companyHandler := handler.NewCompanyHandler(companies)
	healthHandler := handler.NewHealthHandler(db)

	// permissionLookup backs every RequirePermission call; ADMIN never
	// reaches it (the middleware bypasses it directly per §9).
	permissionLookup := middleware.PermissionLookup(func(role domain.Role, companyIDStr string, permissionKey string) (bool, error) {
		companyID, err := uuid.Parse(companyIDStr)
		if err != nil {
			return false, err
		}
		return rolePermissions.HasPermission(context.Background(), role, companyID, permissionKey)
	})

	// verifiedLookup re-checks verification status on every request rather
	// than trusting the access token, since verification can lapse mid-session.
	verifiedLookup := middleware.VerifiedUserLookup(func(r *http.Request, userIDStr string) (bool, string, error) {
		companyID, _ := middleware.CompanyID(r)
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return false, "", err
		}
		u, err := users.GetByID(r.Context(), companyID, userID)
		if err != nil {
			return false, "", err
		}
		return u.NeedsVerification(clock.SystemClock{}.Now()), u.Email, nil
	})

	requirePerm := func(key string) func(http.Handler) http.Handler {
		return middleware.RequirePermission(permissionLookup, key)
	}
	requireVerified := middleware.RequireVerified(verifiedLookup)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigin))

	r.Get("/health", healthHandler.Live)
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register-company", authHandler.RegisterCompany)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
			r.Post("/send-verification-pin", authHandler.SendVerificationPin)
			r.Post("/verify-email", authHandler.VerifyEmail)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
			r.Get("/set-password/info", authHandler.SetPasswordInfo)
			r.Post("/set-password", authHandler.SetPassword)
		})

		r.Route("/kiosk", func(r chi.Router) {
			r.Post("/{slug}/info", kioskHandler.Info)
			r.Post("/check-pin", kioskHandler.CheckPIN)
			r.Post("/clock", kioskHandler.Clock)
		})

		// /time/punch is public (email-resolved, no slug): §4.2's "by
		// email within company" path has no authenticated caller and no
		// kiosk slug to scope the company from.
		r.Post("/time/punch", timeHandler.Punch)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(codec))

			r.Get("/users/me", userHandler.Me)

			r.With(requirePerm("employees.view")).Get("/users/admin/employees", userHandler.ListEmployees)
			r.With(requirePerm("employees.view")).Get("/users/admin/employees/{id}", userHandler.GetEmployee)
			r.With(requirePerm("employees.manage")).Post("/users/admin/employees", userHandler.InviteEmployee)
			r.With(requirePerm("employees.manage")).Put("/users/admin/employees/{id}", userHandler.UpdateEmployee)

			r.With(requirePerm("time_entries.punch"), requireVerified).Post("/time/punch-by-pin", timeHandler.PunchByPIN)
			r.With(requirePerm("time_entries.punch"), requireVerified).Post("/time/punch-me", timeHandler.PunchMe)
			r.With(requirePerm("time_entries.view")).Get("/time/my", timeHandler.MyEntries)
			r.With(requirePerm("time_entries.view")).Get("/time/admin/time", timeHandler.AdminList)
			r.With(requirePerm("time_entries.edit")).Put("/time/admin/time/{id}", timeHandler.UpdateEntry)
			r.With(requirePerm("time_entries.edit")).Delete("/time/admin/time/{id}", timeHandler.DeleteEntry)
			r.With(requirePerm("time_entries.edit")).Post("/time/admin/time/manual", timeHandler.CreateManual)

			r.With(requirePerm("cash_drawer.view")).Get("/admin/cash-drawer", cashDrawerHandler.ListNeedingReview)
			r.With(requirePerm("cash_drawer.view")).Get("/admin/cash-drawer/{id}", cashDrawerHandler.Get)
			r.With(requirePerm("cash_drawer.review")).Put("/admin/cash-drawer/{id}", cashDrawerHandler.EditCounts)
			r.With(requirePerm("cash_drawer.review")).Post("/admin/cash-drawer/{id}/review", cashDrawerHandler.Review)

			r.With(requirePerm("shifts.view")).Get("/shifts", shiftHandler.List)
			r.With(requirePerm("shifts.manage")).Post("/shifts", shiftHandler.Create)
			r.With(requirePerm("shifts.manage")).Put("/shifts/{id}", shiftHandler.Update)
			r.With(requirePerm("shifts.manage")).Delete("/shifts/{id}", shiftHandler.Delete)
			r.With(requirePerm("shifts.manage")).Post("/shifts/bulk/week/preview", shiftHandler.PreviewBulkWeek)
			r.With(requirePerm("shifts.manage")).Post("/shifts/bulk/week", shiftHandler.CreateBulkWeek)
			r.With(requirePerm("shifts.manage")).Post("/shifts/templates", shiftHandler.CreateTemplate)
			r.With(requirePerm("shifts.view")).Get("/shifts/templates", shiftHandler.ListTemplates)
			r.With(requirePerm("shifts.manage")).Delete("/shifts/templates/{id}", shiftHandler.DeactivateTemplate)
			r.With(requirePerm("shifts.manage")).Post("/shifts/templates/{id}/generate", shiftHandler.ExpandTemplate)

			r.With(requirePerm("payroll.view")).Get("/payroll/my", payrollHandler.MyPayroll)
			r.With(requirePerm("payroll.generate")).Post("/payroll", payrollHandler.Generate)
			r.With(requirePerm("payroll.view")).Get("/payroll", payrollHandler.ListRuns)
			r.With(requirePerm("payroll.view")).Get("/payroll/{id}", payrollHandler.GetRun)
			r.With(requirePerm("payroll.generate")).Post("/payroll/{id}/finalize", payrollHandler.Finalize)
			r.With(requirePerm("payroll.generate")).Post("/payroll/{id}/void", payrollHandler.Void)
			r.With(requirePerm("payroll.generate")).Delete("/payroll/{id}", payrollHandler.Delete)

			r.Get("/admin/company", companyHandler.Get)
			r.With(requirePerm("employees.manage")).Put("/admin/company/name", companyHandler.UpdateName)
			r.With(requirePerm("employees.manage")).Put("/admin/company/settings", companyHandler.UpdateSettings)
		})
	})

	log.Printf("listening on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
