package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/driftlab/driftfs/internal/logger"
	backendBadger "github.com/driftlab/driftfs/pkg/backend/badger"
	backendMemory "github.com/driftlab/driftfs/pkg/backend/memory"
	backendProxy "github.com/driftlab/driftfs/pkg/backend/proxy"
	backendS3 "github.com/driftlab/driftfs/pkg/backend/s3"
	"github.com/driftlab/driftfs/pkg/fs"
	"github.com/driftlab/driftfs/pkg/metrics"
)

// CloseFunc releases resources held by a backend built by CreateBackend.
// Always safe to call, even for backends with nothing to release.
type CloseFunc func() error

// CreateBackend creates a content backend based on configuration.
//
// This factory function uses the Type field to determine which backend
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the backend's constructor.
//
// Supported types:
//   - "memory": in-process byte slices, ephemeral
//   - "badger": BadgerDB-persisted content
//   - "s3": Amazon S3 or compatible object storage
//
// When Proxied is set, the chosen backend is wrapped so all of its
// operations run on a dedicated worker goroutine.
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Storage configuration
//
// Returns:
//   - fs.Backend: Initialized backend
//   - CloseFunc: Releases backend resources; call on shutdown
//   - error: Configuration or initialization error
func CreateBackend(ctx context.Context, cfg *StorageConfig) (fs.Backend, CloseFunc, error) {
	var (
		backend fs.Backend
		closer  CloseFunc = func() error { return nil }
		err     error
	)

	switch cfg.Type {
	case "memory":
		backend = backendMemory.New()
	case "badger":
		backend, closer, err = createBadgerBackend(ctx, cfg.Badger)
	case "s3":
		backend, err = createS3Backend(ctx, cfg.S3)
	default:
		err = fmt.Errorf("unknown storage backend type: %q (supported: memory, badger, s3)", cfg.Type)
	}
	if err != nil {
		return nil, nil, err
	}

	if cfg.Proxied {
		proxied := backendProxy.New(backend)
		inner := closer
		closer = func() error {
			// Stop the worker before releasing the wrapped backend.
			if err := proxied.Close(); err != nil {
				return err
			}
			return inner()
		}
		backend = proxied
	}

	return backend, closer, nil
}

// createBadgerBackend creates a BadgerDB-persisted content backend.
func createBadgerBackend(ctx context.Context, options map[string]any) (fs.Backend, CloseFunc, error) {
	// Define the configuration struct for the badger backend
	type BadgerBackendConfig struct {
		Path     string `mapstructure:"path"`
		InMemory bool   `mapstructure:"in_memory"`
	}

	// Decode the options into the config struct
	var backendCfg BadgerBackendConfig
	if err := mapstructure.Decode(options, &backendCfg); err != nil {
		return nil, nil, fmt.Errorf("failed to decode badger backend config: %w", err)
	}

	backend, err := backendBadger.New(ctx, backendBadger.Config{
		Path:     backendCfg.Path,
		InMemory: backendCfg.InMemory,
		Metrics:  metrics.NewStorageMetrics("badger"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create badger backend: %w", err)
	}

	logger.Info("Badger backend initialized: path=%s, in_memory=%t",
		backendCfg.Path, backendCfg.InMemory)

	return backend, backend.Close, nil
}

// createS3Backend creates an S3-based content backend.
func createS3Backend(ctx context.Context, options map[string]any) (fs.Backend, error) {
	// Define the configuration struct for the S3 backend
	type S3BackendConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	// Decode the options into the config struct
	var backendCfg S3BackendConfig
	if err := mapstructure.Decode(options, &backendCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 backend config: %w", err)
	}

	// Validate required fields
	if backendCfg.Bucket == "" {
		return nil, fmt.Errorf("s3 backend: bucket is required")
	}
	if backendCfg.Region == "" {
		return nil, fmt.Errorf("s3 backend: region is required")
	}

	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	var configOptions []func(*awsConfig.LoadOptions) error

	// Set region
	configOptions = append(configOptions, awsConfig.WithRegion(backendCfg.Region))

	// Set custom endpoint if provided (for MinIO, Localstack, etc.)
	if backendCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               backendCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Set credentials if provided, otherwise use default credential chain
	if backendCfg.AccessKeyID != "" && backendCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			backendCfg.AccessKeyID,
			backendCfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Configure retries for better resilience against temporary S3 failures
	// Default to 10 retries if not specified (increased from AWS default of 3)
	maxRetries := backendCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10 // Default: 10 attempts
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries // Retry for transient errors (502, 503, timeouts, etc.)
		})
	}))

	// Load AWS config
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Force path-style addressing for compatibility with MinIO/Localstack
		if backendCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	// ========================================================================
	// Step 3: Create S3 Backend
	// ========================================================================

	backend, err := backendS3.New(ctx, backendS3.Config{
		Client:    client,
		Bucket:    backendCfg.Bucket,
		KeyPrefix: backendCfg.KeyPrefix,
		Metrics:   metrics.NewStorageMetrics("s3"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 backend: %w", err)
	}

	logger.Info("S3 backend initialized: bucket=%s, region=%s, prefix=%s",
		backendCfg.Bucket, backendCfg.Region, backendCfg.KeyPrefix)

	return backend, nil
}
