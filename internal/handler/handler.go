package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/google/uuid"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

type Repository interface {
	CreateSchedulingRun(run *domain.SchedulingRun) error
	GetSchedulingRunByID(id uuid.UUID) (*domain.SchedulingRun, error)
	GetAllSchedulingRuns() ([]*domain.SchedulingRun, error)
	UpdateSchedulingRunStatus(run *domain.SchedulingRun) error
	GetSchedulingRunResultByRunID(runID uuid.UUID) (*domain.SchedulingRunResult, error)
}

type RunPublisher interface {
	PublishRun(ctx context.Context, runID uuid.UUID) error
}

type ProgressStore interface {
	Get(ctx context.Context, runID uuid.UUID) (*domain.RunProgress, error)
	RequestCancel(ctx context.Context, runID uuid.UUID) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository Repository
	translator ut.Translator
	publisher  RunPublisher
	progress   ProgressStore

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo Repository, publisher RunPublisher, progress ProgressStore) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		publisher:  publisher,
		progress:   progress,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", h.CreateSchedulingRun)
			r.Get("/", h.GetAllSchedulingRuns)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.schedulingRun)
				r.Get("/", h.GetSchedulingRun)
				r.Get("/result", h.GetSchedulingRunResult)
				r.Get("/progress", h.GetSchedulingRunProgress)
				r.Post("/cancel", h.CancelSchedulingRun)
			})
		})

		r.Post("/evaluate", h.EvaluateSchedule)
	})
}
