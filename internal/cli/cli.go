// Package cli provides the command line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/combiner/internal/commands"
	"github.com/temirov/combiner/internal/config"
	"github.com/temirov/combiner/internal/filter"
	"github.com/temirov/combiner/internal/output"
	"github.com/temirov/combiner/internal/services/clipboard"
	"github.com/temirov/combiner/internal/tokenizer"
	"github.com/temirov/combiner/internal/types"
	"github.com/temirov/combiner/internal/utils"
)

const (
	rulesFlagName        = "rules"
	outputDirFlagName    = "output-dir"
	extensionFlagName    = "ext"
	copyFlagName         = "copy"
	tokensFlagName       = "tokens"
	modelFlagName        = "model"
	configFlagName       = "config"
	versionFlagName      = "version"
	globalFlagName       = "global"
	forceFlagName        = "force"
	versionTemplate      = "combiner version: %s\n"
	rootUse              = "combiner [root]"
	rootShortDescription = "combine a project into a single text file"
	rootLongDescription  = `combiner walks a project directory, skips hidden paths and paths matched by the
rules file, and writes one text file holding a folder tree, the list of included files
and their concatenated contents.

The file is written to <root>/output_code_combiner/combined_output_<timestamp>.txt.`
	rootUsageExample = `  # Combine the current directory
  combiner

  # Combine Go and Markdown files of another project and copy the result
  combiner ../service --ext .go --ext .md --copy

  # Report a token estimate for a specific model
  combiner --tokens --model gpt-4`
	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write a default .combiner.yaml into the working directory,
or into ~/.combiner with --global.`

	rulesFlagDescription     = "rules file name relative to the root"
	outputDirFlagDescription = "output directory name created beneath the root"
	extensionFlagDescription = "file extension whose content is combined (repeatable)"
	copyFlagDescription      = "copy the combined output to the clipboard"
	tokensFlagDescription    = "estimate token count of the combined output"
	modelFlagDescription     = "tokenizer model used for token estimation"
	configFlagDescription    = "configuration file path"
	versionFlagDescription   = "display application version"
	globalFlagDescription    = "write the configuration into the global configuration directory"
	forceFlagDescription     = "overwrite an existing configuration file"

	completionMessage        = "Code concatenation complete."
	outputSavedFormat        = "Output saved to: %s\n"
	configurationSavedFormat = "Configuration written to: %s\n"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	absolutePathErrorFormat     = "abs failed for '%s': %w"
	loadConfigurationFormat     = "loading configuration: %w"
	invalidOutputDirFormat      = "invalid output directory name '%s': must be a single path segment"

	rulesFallbackWarning   = "unable to load rules file, continuing with output directory rule only"
	tokenCountWarning      = "unable to estimate tokens"
	clipboardWarning       = "unable to copy output to clipboard"
	clipboardCopiedMessage = "combined output copied to clipboard"
	folderRuleSuffix       = "/"
)

// ErrInvalidOutputDirectory is returned when the output directory name is not a single path segment.
var ErrInvalidOutputDirectory = errors.New("invalid output directory")

// Dependencies are the collaborators the root command talks to.
type Dependencies struct {
	FileSystem       afero.Fs
	Clock            func() time.Time
	Clipboard        clipboard.Copier
	NewTokenCounter  func(tokenizer.Config) (tokenizer.Counter, string, error)
	Logger           *zap.Logger
	WorkingDirectory func() (string, error)
	// HomeDirectory locates the global configuration. Empty means the user's home directory.
	HomeDirectory string
}

// DefaultDependencies wires the operating system implementations.
func DefaultDependencies(logger *zap.Logger) Dependencies {
	return Dependencies{
		FileSystem:       afero.NewOsFs(),
		Clock:            time.Now,
		Clipboard:        clipboard.NewService(),
		NewTokenCounter:  tokenizer.NewCounter,
		Logger:           logger,
		WorkingDirectory: os.Getwd,
	}
}

func (dependencies Dependencies) withDefaults() Dependencies {
	if dependencies.FileSystem == nil {
		dependencies.FileSystem = afero.NewOsFs()
	}
	if dependencies.Clock == nil {
		dependencies.Clock = time.Now
	}
	if dependencies.Clipboard == nil {
		dependencies.Clipboard = clipboard.NewService()
	}
	if dependencies.NewTokenCounter == nil {
		dependencies.NewTokenCounter = tokenizer.NewCounter
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.WorkingDirectory == nil {
		dependencies.WorkingDirectory = os.Getwd
	}
	return dependencies
}

// Execute runs the combiner application.
func Execute(logger *zap.Logger) error {
	return NewRootCommand(DefaultDependencies(logger)).Execute()
}

// combineOptions stores values of the root command flags.
type combineOptions struct {
	rulesFile         string
	outputDirectory   string
	extensions        []string
	copyEnabled       bool
	tokensEnabled     bool
	model             string
	configurationPath string
	showVersion       bool
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	dependencies = dependencies.withDefaults()
	var options combineOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				_, printError := fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return printError
			}
			return runCombine(command, dependencies, options, arguments)
		},
	}

	flagSet := rootCommand.Flags()
	flagSet.StringVar(&options.rulesFile, rulesFlagName, utils.GitIgnoreFileName, rulesFlagDescription)
	flagSet.StringVar(&options.outputDirectory, outputDirFlagName, utils.DefaultOutputDirectoryName, outputDirFlagDescription)
	flagSet.StringArrayVar(&options.extensions, extensionFlagName, nil, extensionFlagDescription)
	registerBooleanFlag(flagSet, &options.copyEnabled, copyFlagName, copyFlagDescription)
	registerBooleanFlag(flagSet, &options.tokensEnabled, tokensFlagName, tokensFlagDescription)
	flagSet.StringVar(&options.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	flagSet.StringVar(&options.configurationPath, configFlagName, "", configFlagDescription)
	flagSet.BoolVar(&options.showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.AddCommand(createInitCommand(dependencies))
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand(dependencies Dependencies) *cobra.Command {
	var globalTarget bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if globalTarget {
				target = config.InitTargetGlobal
			}
			workingDirectory, workingDirectoryError := dependencies.WorkingDirectory()
			if workingDirectoryError != nil {
				return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
			}
			destinationPath, initError := config.InitializeConfiguration(config.InitOptions{
				FileSystem:    dependencies.FileSystem,
				Target:        target,
				Force:         force,
				RootDirectory: workingDirectory,
				HomeDirectory: dependencies.HomeDirectory,
			})
			if initError != nil {
				return initError
			}
			_, printError := fmt.Fprintf(command.OutOrStdout(), configurationSavedFormat, destinationPath)
			return printError
		},
	}
	initCommand.Flags().BoolVar(&globalTarget, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// resolvedSettings are the effective values after flags, configuration and defaults are merged.
type resolvedSettings struct {
	rulesFile       string
	outputDirectory string
	extensions      []string
	copyEnabled     bool
	tokensEnabled   bool
	model           string
}

// resolveSettings applies flag values over configuration values over defaults.
func resolveSettings(command *cobra.Command, options combineOptions, applicationConfiguration config.ApplicationConfiguration) resolvedSettings {
	flagSet := command.Flags()
	settings := resolvedSettings{
		rulesFile:       utils.GitIgnoreFileName,
		outputDirectory: utils.DefaultOutputDirectoryName,
		extensions:      utils.DefaultExtensions(),
		model:           tokenizer.DefaultModel,
	}

	if applicationConfiguration.RulesFile != "" {
		settings.rulesFile = applicationConfiguration.RulesFile
	}
	if applicationConfiguration.OutputDir != "" {
		settings.outputDirectory = applicationConfiguration.OutputDir
	}
	if len(applicationConfiguration.Extensions) > 0 {
		settings.extensions = applicationConfiguration.Extensions
	}
	if applicationConfiguration.Copy != nil {
		settings.copyEnabled = *applicationConfiguration.Copy
	}
	if applicationConfiguration.Tokens.Enabled != nil {
		settings.tokensEnabled = *applicationConfiguration.Tokens.Enabled
	}
	if applicationConfiguration.Tokens.Model != "" {
		settings.model = applicationConfiguration.Tokens.Model
	}

	if flagSet.Changed(rulesFlagName) {
		settings.rulesFile = options.rulesFile
	}
	if flagSet.Changed(outputDirFlagName) {
		settings.outputDirectory = options.outputDirectory
	}
	if flagSet.Changed(extensionFlagName) {
		if normalized := utils.NormalizeExtensions(options.extensions); len(normalized) > 0 {
			settings.extensions = normalized
		}
	}
	if flagSet.Changed(copyFlagName) {
		settings.copyEnabled = options.copyEnabled
	}
	if flagSet.Changed(tokensFlagName) {
		settings.tokensEnabled = options.tokensEnabled
	}
	if flagSet.Changed(modelFlagName) {
		settings.model = options.model
	}
	return settings
}

// validateOutputDirectory rejects names that would place artifacts outside a direct child of the root.
func validateOutputDirectory(outputDirectory string) error {
	trimmed := strings.TrimRight(outputDirectory, `/\`)
	if trimmed == "" || trimmed == "." || trimmed == ".." || strings.ContainsAny(trimmed, `/\`) {
		return fmt.Errorf("%w: "+invalidOutputDirFormat, ErrInvalidOutputDirectory, outputDirectory)
	}
	return nil
}

// resolveRootPath returns the absolute root selected by the arguments or the working directory.
func resolveRootPath(dependencies Dependencies, arguments []string) (string, error) {
	rootPath := ""
	if len(arguments) > 0 {
		rootPath = arguments[0]
	}
	if rootPath == "" {
		workingDirectory, workingDirectoryError := dependencies.WorkingDirectory()
		if workingDirectoryError != nil {
			return "", fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
		}
		rootPath = workingDirectory
	}
	absoluteRootPath, absoluteError := filepath.Abs(rootPath)
	if absoluteError != nil {
		return "", fmt.Errorf(absolutePathErrorFormat, rootPath, absoluteError)
	}
	return absoluteRootPath, nil
}

// runCombine performs one traversal, writes the artifact and reports the outcome.
func runCombine(command *cobra.Command, dependencies Dependencies, options combineOptions, arguments []string) error {
	logger := dependencies.Logger

	rootPath, rootError := resolveRootPath(dependencies, arguments)
	if rootError != nil {
		return rootError
	}

	workingDirectory := ""
	if options.configurationPath != "" {
		resolvedWorkingDirectory, workingDirectoryError := dependencies.WorkingDirectory()
		if workingDirectoryError != nil {
			return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
		}
		workingDirectory = resolvedWorkingDirectory
	}
	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		FileSystem:       dependencies.FileSystem,
		RootDirectory:    rootPath,
		HomeDirectory:    dependencies.HomeDirectory,
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: options.configurationPath,
	})
	if configurationError != nil {
		return fmt.Errorf(loadConfigurationFormat, configurationError)
	}

	settings := resolveSettings(command, options, applicationConfiguration)
	if validationError := validateOutputDirectory(settings.outputDirectory); validationError != nil {
		return validationError
	}
	settings.outputDirectory = strings.TrimRight(settings.outputDirectory, `/\`)

	patterns, rulesError := config.LoadRulePatterns(dependencies.FileSystem, rootPath, settings.rulesFile, settings.outputDirectory)
	if rulesError != nil {
		logger.Warn(rulesFallbackWarning, zap.String("rules_file", settings.rulesFile), zap.Error(rulesError))
		patterns = []string{settings.outputDirectory + folderRuleSuffix}
	}
	pathFilter := filter.New(patterns)
	logger.Debug("loaded ignore rules", zap.Strings("patterns", pathFilter.Patterns()))

	configuration := types.Configuration{
		RootPath:            rootPath,
		Extensions:          settings.extensions,
		OutputDirectoryName: settings.outputDirectory,
		RulesFileName:       settings.rulesFile,
	}
	snapshot, walkError := commands.NewTreeWalker(dependencies.FileSystem, pathFilter, configuration, logger).Walk()
	if walkError != nil {
		return walkError
	}

	artifactText := output.RenderArtifact(snapshot)
	artifactPath, writeError := commands.WriteArtifact(dependencies.FileSystem, rootPath, settings.outputDirectory, dependencies.Clock(), artifactText)
	if writeError != nil {
		return writeError
	}

	standardOutput := command.OutOrStdout()
	fmt.Fprintln(standardOutput, completionMessage)
	fmt.Fprintf(standardOutput, outputSavedFormat, artifactPath)

	summary := &types.OutputSummary{
		TotalFiles: len(snapshot.Manifest),
		TotalSize:  utils.FormatFileSize(snapshot.TotalBytes()),
	}
	if settings.tokensEnabled {
		countTokens(dependencies, settings.model, artifactText, summary)
	}
	fmt.Fprintln(standardOutput, output.FormatSummaryLine(summary))

	if settings.copyEnabled {
		if copyError := dependencies.Clipboard.Copy(artifactText); copyError != nil {
			logger.Warn(clipboardWarning, zap.Error(copyError))
		} else {
			logger.Info(clipboardCopiedMessage)
		}
	}
	return nil
}

// countTokens fills the token fields of summary. Failures are logged and leave the summary without tokens.
func countTokens(dependencies Dependencies, model string, artifactText string, summary *types.OutputSummary) {
	counter, counterModel, counterError := dependencies.NewTokenCounter(tokenizer.Config{Model: model})
	if counterError != nil {
		dependencies.Logger.Warn(tokenCountWarning, zap.String("model", model), zap.Error(counterError))
		return
	}
	result, countError := tokenizer.CountText(counter, counterModel, artifactText)
	if countError != nil {
		dependencies.Logger.Warn(tokenCountWarning, zap.String("model", counterModel), zap.Error(countError))
		return
	}
	summary.TotalTokens = result.Tokens
	summary.Model = result.Model
}
