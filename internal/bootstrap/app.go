// Package bootstrap wires configuration, the backend client, stores,
// services and handlers into a running application. main and the
// router-level tests both build through here.
package bootstrap

import (
	"time"

	"github.com/gin-gonic/gin"

	"compliance-console/internal/backend"
	"compliance-console/internal/backend/token"
	"compliance-console/internal/files"
	"compliance-console/internal/jobs"
	"compliance-console/internal/knowledgebase"
	"compliance-console/internal/questions"
	"compliance-console/internal/shared/config"
	"compliance-console/internal/shared/telemetry"
	"compliance-console/internal/uploads"
)

// App holds shared dependencies.
type App struct {
	Config  config.Config
	Backend *backend.Client

	JobStore      *jobs.Store
	FileStore     *files.Store
	QuestionStore *questions.Store

	JobService       *jobs.Service
	QuestionEditor   *questions.Editor
	UploadPipeline   *uploads.Pipeline
	KnowledgeService *knowledgebase.Service

	JobHandler       *jobs.Handler
	QuestionHandler  *questions.Handler
	UploadHandler    *uploads.Handler
	KnowledgeHandler *knowledgebase.Handler
}

// Build prepares shared dependencies without wiring routes.
func Build(cfg config.Config) (*App, error) {
	tokens := buildTokenSource(cfg)

	client := backend.New(
		cfg.JobsAPIBaseURL,
		cfg.QuestionGenAPIBaseURL,
		cfg.IndexDocumentsAPIBaseURL,
		tokens,
		time.Duration(cfg.BackendTimeoutSecs)*time.Second,
	)

	jobStore := jobs.NewStore()
	fileStore := files.NewStore()
	questionStore := questions.NewStore()

	jobSvc := &jobs.Service{
		Backend:   client,
		Jobs:      jobStore,
		Files:     fileStore,
		Questions: questionStore,
	}
	editor := questions.NewEditor(questionStore, client)
	pipeline := uploads.NewPipeline(client, fileStore)
	kbSvc := knowledgebase.NewService(client)

	return &App{
		Config:  cfg,
		Backend: client,

		JobStore:      jobStore,
		FileStore:     fileStore,
		QuestionStore: questionStore,

		JobService:       jobSvc,
		QuestionEditor:   editor,
		UploadPipeline:   pipeline,
		KnowledgeService: kbSvc,

		JobHandler:       jobs.NewHandler(jobSvc, fileStore),
		QuestionHandler:  questions.NewHandler(jobSvc, editor),
		UploadHandler:    uploads.NewHandler(pipeline, jobStore),
		KnowledgeHandler: knowledgebase.NewHandler(kbSvc),
	}, nil
}

// RegisterRoutes attaches every feature's routes to the group.
func (a *App) RegisterRoutes(rg *gin.RouterGroup) {
	a.JobHandler.RegisterRoutes(rg)
	a.QuestionHandler.RegisterRoutes(rg)
	a.UploadHandler.RegisterRoutes(rg)
	a.KnowledgeHandler.RegisterRoutes(rg)
}

// buildTokenSource layers outbound credentials: the caller's own bearer
// first, then a configured static token, then client credentials.
func buildTokenSource(cfg config.Config) token.Source {
	chain := token.Chain{token.ContextSource{}}

	if cfg.BackendToken != "" {
		chain = append(chain, token.StaticSource(cfg.BackendToken))
	}
	if cfg.TokenURL != "" {
		oauth, err := token.NewOAuthSource(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.TokenScopes)
		if err != nil {
			telemetry.Warn("token.oauth.disabled", map[string]any{"err": err.Error()})
		} else {
			chain = append(chain, oauth)
		}
	}
	return chain
}
