package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes(deps handlers.Deps) {
	datasetsHandler := handlers.NewDatasetsHandler(deps.Datasets, deps.Builder, s.jobManager)
	recognitionHandler := handlers.NewRecognitionHandler(deps)
	attendanceHandler := handlers.NewAttendanceHandler(deps.Ledger, s.config)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Datasets
		r.Get("/datasets", datasetsHandler.List)
		r.Post("/datasets", datasetsHandler.Build)
		r.Get("/datasets/jobs/{jobId}", datasetsHandler.BuildStatus)
		r.Get("/datasets/{name}", datasetsHandler.Get)
		r.Delete("/datasets/{name}", datasetsHandler.Delete)

		// Recognition session
		r.Post("/recognition/start", recognitionHandler.Start)
		r.Post("/recognition/stop", recognitionHandler.Stop)
		r.Get("/recognition/status", recognitionHandler.Status)

		// Attendance
		r.Get("/attendance/today", attendanceHandler.Today)
		r.Get("/attendance/trend", attendanceHandler.Trend)
		r.Get("/attendance/distribution", attendanceHandler.Distribution)
		r.Get("/attendance/students/{label}", attendanceHandler.Student)
		r.Get("/attendance/{date}", attendanceHandler.ByDate)
		r.Delete("/attendance/{date}", attendanceHandler.Clear)
	})
}
