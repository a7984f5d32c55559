package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"careerpath-backend/internal/llm"
	openai "careerpath-backend/internal/llm/openai"
	"careerpath-backend/internal/pdf"
	"careerpath-backend/internal/plans"
	"careerpath-backend/internal/services/health"
	"careerpath-backend/internal/shared/config"
	"careerpath-backend/internal/shared/server"
	"careerpath-backend/internal/shared/storage/object"
	localstore "careerpath-backend/internal/shared/storage/object/local"
	s3store "careerpath-backend/internal/shared/storage/object/s3"
	"careerpath-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config      config.Config
	Router      *gin.Engine
	Store       object.Store
	LLM         llm.Client
	Renderer    pdf.Renderer
	PlanService *plans.Service
	PlanHandler *plans.Handler

	chrome *pdf.ChromeRenderer
}

// Build prepares shared dependencies and wires routes. Exactly one storage
// backend is selected, fixed for the life of the process.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	chrome := pdf.NewChromeRenderer(pdf.ChromeConfig{
		ExecPath:  cfg.ChromePath,
		RemoteURL: cfg.ChromeRemoteURL,
		Timeout:   cfg.RenderTimeout,
		NoSandbox: cfg.ChromeNoSandbox,
	})

	app := &App{
		Config:   cfg,
		Store:    store,
		LLM:      llmClient,
		Renderer: chrome,
		chrome:   chrome,
	}
	app.PlanService = plans.NewService(store, plans.NewGenerator(llmClient), chrome)
	app.PlanHandler = plans.NewHandler(app.PlanService, plans.Options{
		MaxUploadBytes:   cfg.MaxUploadBytes,
		AllowedFileTypes: cfg.AllowedFileTypes,
	})

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		PlanHandler: app.PlanHandler,
		Health:      health.NewService(),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":           cfg.Env,
		"storage":       store.Backend(),
		"llm":           llmName(llmClient),
		"max_upload":    cfg.MaxUploadBytes,
		"allowed_types": strings.Join(cfg.AllowedFileTypes, ","),
	})
	return app, nil
}

// Close releases the browser used for PDF rendering.
func (a *App) Close() {
	if a.chrome != nil {
		a.chrome.Close()
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	if cfg.CloudStorage() {
		store, err := s3store.New(ctx, s3store.Config{
			Account:            cfg.StorageAccount,
			Region:             cfg.StorageRegion,
			Endpoint:           cfg.StorageEndpoint,
			UseManagedIdentity: cfg.UseManagedIdentity,
			AccessKeyID:        cfg.StorageAccessKey,
			SecretAccessKey:    cfg.StorageSecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("cloud storage: %w", err)
		}
		return store, nil
	}

	store, err := localstore.New(cfg.LocalStoreDir)
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	return store, nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		telemetry.Warn("bootstrap.llm.unconfigured", map[string]any{
			"hint": "set AZURE_OPENAI_API_KEY or OPENAI_API_KEY",
		})
		return llm.PlaceholderClient{}, nil
	}
	client, err := openai.NewClient(openai.Options{
		Endpoint:   cfg.OpenAIEndpoint,
		APIKey:     cfg.OpenAIAPIKey,
		Deployment: cfg.OpenAIDeployment,
		APIVersion: cfg.OpenAIAPIVersion,
		Timeout:    cfg.OpenAITimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	return client, nil
}

func llmName(client llm.Client) string {
	switch client.(type) {
	case llm.PlaceholderClient:
		return "placeholder"
	case *openai.Client:
		return "openai"
	default:
		return fmt.Sprintf("%T", client)
	}
}
