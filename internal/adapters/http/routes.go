package web

import "net/http"

// registerRoutes binds every handler. Role checks live inside the handlers
// so a route can serve different roles differently (e.g. orders).
func registerRoutes(mux *http.ServeMux) {
	// Auth
	mux.HandleFunc("POST /api/login", handleLogin)
	mux.HandleFunc("POST /api/logout", handleLogout)
	mux.HandleFunc("POST /api/password", handleChangePassword)

	// Dashboard
	mux.HandleFunc("GET /api/dashboard", handleDashboard)

	// Workout session engine (member)
	mux.HandleFunc("GET /api/workout/state", handleWorkoutState)
	mux.HandleFunc("POST /api/workout/start", handleWorkoutStart)
	mux.HandleFunc("POST /api/workout/resume", handleWorkoutResume)
	mux.HandleFunc("POST /api/workout/exercise/start", handleWorkoutExerciseStart)
	mux.HandleFunc("POST /api/workout/exercise/complete", handleWorkoutExerciseComplete)
	mux.HandleFunc("POST /api/workout/exercise/skip", handleWorkoutExerciseSkip)
	mux.HandleFunc("POST /api/workout/complete", handleWorkoutComplete)
	mux.HandleFunc("POST /api/workout/cancel", handleWorkoutCancel)
	mux.HandleFunc("GET /api/workout/history", handleWorkoutHistory)

	// Leads (staff)
	mux.HandleFunc("GET /api/leads", handleLeadList)
	mux.HandleFunc("POST /api/leads", handleLeadCreate)
	mux.HandleFunc("GET /api/leads/pipeline", handleLeadPipeline)
	mux.HandleFunc("GET /api/leads/{id}", handleLeadGet)
	mux.HandleFunc("PUT /api/leads/{id}", handleLeadUpdate)
	mux.HandleFunc("DELETE /api/leads/{id}", handleLeadDelete)
	mux.HandleFunc("POST /api/leads/{id}/advance", handleLeadAdvance)
	mux.HandleFunc("POST /api/leads/{id}/convert", handleLeadConvert)

	// Members (staff)
	mux.HandleFunc("GET /api/members", handleMemberList)
	mux.HandleFunc("POST /api/members", handleMemberRegister)
	mux.HandleFunc("GET /api/members/{id}", handleMemberGet)
	mux.HandleFunc("POST /api/members/{id}/archive", handleMemberArchive)
	mux.HandleFunc("POST /api/members/{id}/restore", handleMemberRestore)

	// Trainers (staff; mutations admin-only)
	mux.HandleFunc("GET /api/trainers", handleTrainerList)
	mux.HandleFunc("POST /api/trainers", handleTrainerCreate)
	mux.HandleFunc("GET /api/trainers/{id}", handleTrainerGet)
	mux.HandleFunc("PUT /api/trainers/{id}", handleTrainerUpdate)
	mux.HandleFunc("DELETE /api/trainers/{id}", handleTrainerDelete)

	// Membership plans (admin mutations)
	mux.HandleFunc("GET /api/membership-plans", handleMembershipList)
	mux.HandleFunc("POST /api/membership-plans", handleMembershipCreate)
	mux.HandleFunc("GET /api/membership-plans/{id}", handleMembershipGet)
	mux.HandleFunc("PUT /api/membership-plans/{id}", handleMembershipUpdate)
	mux.HandleFunc("POST /api/membership-plans/{id}/archive", handleMembershipArchive)

	// Shop
	mux.HandleFunc("GET /api/products", handleProductList)
	mux.HandleFunc("POST /api/products", handleProductCreate)
	mux.HandleFunc("GET /api/products/{id}", handleProductGet)
	mux.HandleFunc("PUT /api/products/{id}", handleProductUpdate)
	mux.HandleFunc("DELETE /api/products/{id}", handleProductDelete)
	mux.HandleFunc("GET /api/orders", handleOrderList)
	mux.HandleFunc("POST /api/orders", handleOrderPlace)
	mux.HandleFunc("GET /api/orders/{id}", handleOrderGet)
	mux.HandleFunc("POST /api/orders/{id}/status", handleOrderStatus)

	// Exercise library
	mux.HandleFunc("GET /api/exercises", handleExerciseList)
	mux.HandleFunc("POST /api/exercises", handleExerciseCreate)
	mux.HandleFunc("GET /api/exercises/{id}", handleExerciseGet)
	mux.HandleFunc("PUT /api/exercises/{id}", handleExerciseUpdate)
	mux.HandleFunc("DELETE /api/exercises/{id}", handleExerciseDelete)

	// Workout plans
	mux.HandleFunc("GET /api/plans", handlePlanList)
	mux.HandleFunc("POST /api/plans", handlePlanCreate)
	mux.HandleFunc("GET /api/plans/{id}", handlePlanGet)
	mux.HandleFunc("PUT /api/plans/{id}", handlePlanUpdate)
	mux.HandleFunc("DELETE /api/plans/{id}", handlePlanDelete)

	// Admin
	mux.HandleFunc("GET /api/admin/audit", handleAdminAuditTrail)
	mux.HandleFunc("GET /api/admin/outbox", handleAdminOutboxList)
	mux.HandleFunc("POST /api/admin/outbox/{id}/{action}", handleAdminOutboxAction)
}
