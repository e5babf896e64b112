// Package deploy bundles an ike project and queues it on the remote build
// endpoint.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

const (
	DefaultKeyringService = "ike"
	DefaultKeyringUser    = "api_key"
	ignoreFileName        = ".gitignore"
)

// ErrAPIKeyRequired is returned when no key is configured, stored or entered.
var ErrAPIKeyRequired = errors.New("deploy: api key is required")

// Prompter asks for the API key and shows progress.
type Prompter interface {
	Secret(ctx context.Context, title string) (string, error)
	Spin(ctx context.Context, title string, action func(context.Context) error) error
}

// Submitter uploads a bundle.
type Submitter interface {
	Submit(ctx context.Context, apiKey, bundlePath string) (string, error)
}

// Config describes one deployment.
type Config struct {
	ProjectDir string
	// APIKey skips the keyring when set.
	APIKey         string
	KeyringService string
	KeyringUser    string
}

// Result reports what was shipped.
type Result struct {
	URL   string
	Files int
}

// Service runs deployments.
type Service struct {
	submitter   Submitter
	credentials CredentialStore
	prompter    Prompter
	logger      interfaces.Logger
}

func NewService(submitter Submitter, credentials CredentialStore, prompter Prompter, logger interfaces.Logger) *Service {
	if logger == nil {
		logger = logging.NoOp()
	}
	if credentials == nil {
		credentials = KeyringStore{}
	}
	return &Service{
		submitter:   submitter,
		credentials: credentials,
		prompter:    prompter,
		logger:      logger,
	}
}

// Deploy resolves the API key, zips the project honouring its .gitignore,
// submits the bundle and removes it again.
func (s *Service) Deploy(ctx context.Context, cfg Config) (*Result, error) {
	if s.submitter == nil {
		return nil, errors.New("deploy: submitter is required")
	}
	root := strings.TrimSpace(cfg.ProjectDir)
	if root == "" {
		root = "."
	}

	apiKey, err := s.resolveAPIKey(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ignore, err := LoadIgnoreFile(filepath.Join(root, ignoreFileName))
	if err != nil {
		return nil, err
	}

	bundle, err := os.CreateTemp("", "ike-bundle-*.zip")
	if err != nil {
		return nil, fmt.Errorf("deploy: create bundle: %w", err)
	}
	bundlePath := bundle.Name()
	_ = bundle.Close()
	defer func() {
		if err := os.Remove(bundlePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WithFields(s.logger, map[string]any{"bundle": bundlePath, "error": err}).Warn("deploy.bundle.cleanup_failed")
		}
	}()

	s.logger.Info("deploy.build.start")
	files, err := Bundle(ctx, root, bundlePath, ignore)
	if err != nil {
		return nil, err
	}
	logging.WithFields(s.logger, map[string]any{"files": files}).Debug("deploy.build.completed")

	s.logger.Info("deploy.submit.start")
	var url string
	submit := func(ctx context.Context) error {
		var err error
		url, err = s.submitter.Submit(ctx, apiKey, bundlePath)
		return err
	}
	if s.prompter != nil {
		err = s.prompter.Spin(ctx, "Queueing deployment...", submit)
	} else {
		err = submit(ctx)
	}
	if err != nil {
		logging.WithFields(s.logger, map[string]any{"error": err}).Error("deploy.submit.failed")
		return nil, err
	}

	logging.WithFields(s.logger, map[string]any{"url": url}).Info("deploy.submit.queued")
	return &Result{URL: url, Files: files}, nil
}

func (s *Service) resolveAPIKey(ctx context.Context, cfg Config) (string, error) {
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key, nil
	}
	service := strings.TrimSpace(cfg.KeyringService)
	if service == "" {
		service = DefaultKeyringService
	}
	user := strings.TrimSpace(cfg.KeyringUser)
	if user == "" {
		user = DefaultKeyringUser
	}

	key, err := s.credentials.Get(service, user)
	if err == nil && strings.TrimSpace(key) != "" {
		return key, nil
	}
	if err != nil && !errors.Is(err, ErrCredentialNotFound) {
		logging.WithFields(s.logger, map[string]any{"error": err}).Warn("deploy.keyring.unavailable")
	}

	if s.prompter == nil {
		return "", ErrAPIKeyRequired
	}
	key, err = s.prompter.Secret(ctx, "Enter API key")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIKeyRequired, err)
	}
	if strings.TrimSpace(key) == "" {
		return "", ErrAPIKeyRequired
	}
	if err := s.credentials.Set(service, user, key); err != nil {
		logging.WithFields(s.logger, map[string]any{"error": err}).Warn("deploy.keyring.store_failed")
	}
	return key, nil
}
