package ike

import "github.com/goliatone/go-ike/internal/runtimeconfig"

var (
	ErrProjectDirRequired         = runtimeconfig.ErrProjectDirRequired
	ErrPublicDirRequired          = runtimeconfig.ErrPublicDirRequired
	ErrServerAddrRequired         = runtimeconfig.ErrServerAddrRequired
	ErrDescriptorBaseURLInvalid   = runtimeconfig.ErrDescriptorBaseURLInvalid
	ErrGeneratorOutputDirRequired = runtimeconfig.ErrGeneratorOutputDirRequired
	ErrGeneratorWorkersInvalid    = runtimeconfig.ErrGeneratorWorkersInvalid
	ErrExtractOutputDirRequired   = runtimeconfig.ErrExtractOutputDirRequired
	ErrDeployEndpointInvalid      = runtimeconfig.ErrDeployEndpointInvalid
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config               = runtimeconfig.Config
	ServerConfig         = runtimeconfig.ServerConfig
	DescriptorsConfig    = runtimeconfig.DescriptorsConfig
	MarkdownConfig       = runtimeconfig.MarkdownConfig
	MarkdownParserConfig = runtimeconfig.MarkdownParserConfig
	ComponentsConfig     = runtimeconfig.ComponentsConfig
	GeneratorConfig      = runtimeconfig.GeneratorConfig
	ExtractConfig        = runtimeconfig.ExtractConfig
	DeployConfig         = runtimeconfig.DeployConfig
	ScaffoldConfig       = runtimeconfig.ScaffoldConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads the settings block of {dir}/ike.yaml and IKE_*
// environment overrides on top of DefaultConfig.
func LoadConfig(dir string) (Config, error) {
	return runtimeconfig.Load(dir)
}
