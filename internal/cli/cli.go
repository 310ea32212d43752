// Package cli provides the command-line interface with injectable io.Writer for testing.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mcdonaldj/wheeledit/internal/adapters/wheelcodec"
	"github.com/mcdonaldj/wheeledit/internal/config"
	"github.com/mcdonaldj/wheeledit/internal/diff"
	"github.com/mcdonaldj/wheeledit/internal/editor"
	"github.com/mcdonaldj/wheeledit/internal/metadata"
	"github.com/mcdonaldj/wheeledit/internal/ports"
	"github.com/mcdonaldj/wheeledit/internal/verify"
)

// ConfigService provides configuration operations for the CLI.
type ConfigService interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
	ConfigPath() string
	DefaultConfig() *config.Config
}

// EditorSession is the slice of the editor the CLI drives, one session per
// wheel file.
type EditorSession interface {
	Unpack() (string, error)
	Metadata() (string, error)
	RenamePackage(newName string) (string, error)
	ReplaceMetadata(source string) (string, error)
	UpdateMetadata(fields map[string]string) error
	List(dir string) ([]string, error)
	Repackage(outputPath string) (string, error)
	Cleanup() error
}

// VerifyService provides RECORD verification for the CLI.
type VerifyService interface {
	Verify(wheelPath string) ([]verify.Mismatch, error)
}

// CLI represents the command-line interface with injectable dependencies.
type CLI struct {
	Out     io.Writer // Standard output
	Err     io.Writer // Standard error
	Version string    // Application version
	Args    []string  // Command arguments (like os.Args)

	// Exit function for testability (defaults to os.Exit)
	Exit func(code int)

	// Injectable dependencies (nil means use defaults)
	ConfigSvc ConfigService
	VerifySvc VerifyService
	Codec     ports.Archiver
	NewEditor func(wheelPath string) EditorSession

	// Color functions (can be disabled for testing)
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
	red    func(a ...interface{}) string
}

// New creates a new CLI with default settings.
func New(version string) *CLI {
	return &CLI{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Version: version,
		Args:    os.Args,
		Exit:    os.Exit,
		green:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:  color.New(color.FgYellow).SprintFunc(),
		cyan:    color.New(color.FgCyan).SprintFunc(),
		gray:    color.New(color.FgHiBlack).SprintFunc(),
		red:     color.New(color.FgRed).SprintFunc(),
	}
}

// NewForTesting creates a CLI configured for testing (no colors, captured output).
func NewForTesting(out, errOut io.Writer, args []string) *CLI {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	exitCode := 0
	return &CLI{
		Out:     out,
		Err:     errOut,
		Version: "test",
		Args:    args,
		Exit:    func(code int) { exitCode = code; _ = exitCode },
		green:   noColor,
		yellow:  noColor,
		cyan:    noColor,
		gray:    noColor,
		red:     noColor,
	}
}

// defaultConfigService wraps the config package functions.
type defaultConfigService struct{}

func (d *defaultConfigService) Load() (*config.Config, error) { return config.Load() }
func (d *defaultConfigService) Save(cfg *config.Config) error { return cfg.Save() }
func (d *defaultConfigService) ConfigPath() string            { return config.ConfigPath() }
func (d *defaultConfigService) DefaultConfig() *config.Config { return config.DefaultConfig() }

func (c *CLI) configSvc() ConfigService {
	if c.ConfigSvc != nil {
		return c.ConfigSvc
	}
	return &defaultConfigService{}
}

func (c *CLI) verifySvc() VerifyService {
	if c.VerifySvc != nil {
		return c.VerifySvc
	}
	return verify.NewDefaultService()
}

func (c *CLI) codec() ports.Archiver {
	if c.Codec != nil {
		return c.Codec
	}
	return wheelcodec.New()
}

func (c *CLI) newEditor(wheelPath string) EditorSession {
	if c.NewEditor != nil {
		return c.NewEditor(wheelPath)
	}
	return editor.New(wheelPath)
}

// disableColors swaps the sprint funcs for plain output.
func (c *CLI) disableColors() {
	plain := func(a ...interface{}) string { return fmt.Sprint(a...) }
	c.green = plain
	c.yellow = plain
	c.cyan = plain
	c.gray = plain
	c.red = plain
}

// Run executes the CLI with the configured arguments.
func (c *CLI) Run() {
	if cfg, err := c.configSvc().Load(); err == nil && cfg.NoColor {
		c.disableColors()
	}

	if len(c.Args) < 2 {
		c.PrintUsage()
		c.Exit(1)
		return
	}

	switch c.Args[1] {
	case "show":
		c.ShowMetadata()
	case "list":
		c.ListFiles()
	case "verify":
		c.RunVerify()
	case "diff":
		c.RunDiff()
	case "init":
		c.InitConfig()
	case "version", "-v", "--version":
		fmt.Fprintf(c.Out, "wheeledit v%s\n", c.Version)
	case "help", "-h", "--help":
		c.PrintUsage()
	default:
		// Anything else is the edit surface: wheel files or directories
		// plus modification flags.
		c.RunEdit(c.Args[1:])
	}
}

// PrintUsage prints the help message.
func (c *CLI) PrintUsage() {
	fmt.Fprintln(c.Out, `wheeledit - Edit wheel metadata and content

Usage:
  wheeledit <input>... [flags]             Edit wheel file(s) or every wheel in
                                           the given directories; with no
                                           modification flags, print METADATA
  wheeledit show <wheel>                   Print a wheel's METADATA
  wheeledit list <wheel> [subdir]          List files inside a wheel
  wheeledit verify <wheel>                 Check RECORD hashes and sizes
  wheeledit diff <a.whl> <b.whl>           Compare two wheels
  wheeledit ui <wheel>                     Launch interactive inspector
  wheeledit init                           Create default config file
  wheeledit version, -v                    Show version
  wheeledit help, -h                       Show this help

Flags:
  -o, --output PATH    Output path (file for a single input, directory for batch)
      --rename NAME    Rename the package
      --metadata FILE  Metadata to apply (.json mapping or raw METADATA file)

Config: ~/.wheeledit/config.yaml`)
}

// InitConfig creates the default config file.
func (c *CLI) InitConfig() {
	svc := c.configSvc()
	if err := svc.Save(svc.DefaultConfig()); err != nil {
		fmt.Fprintf(c.Err, "Error saving config: %v\n", err)
		c.Exit(1)
		return
	}
	fmt.Fprintf(c.Out, "Created config at %s\n", svc.ConfigPath())
}

// ShowMetadata prints a wheel's METADATA body.
func (c *CLI) ShowMetadata() {
	if len(c.Args) < 3 {
		fmt.Fprintln(c.Out, "Usage: wheeledit show <wheel>")
		c.Exit(1)
		return
	}

	ed := c.newEditor(c.Args[2])
	defer func() { _ = ed.Cleanup() }()

	md, err := ed.Metadata()
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}
	if md != "" {
		fmt.Fprint(c.Out, md)
	}
}

// ListFiles lists the files inside a wheel.
func (c *CLI) ListFiles() {
	if len(c.Args) < 3 {
		fmt.Fprintln(c.Out, "Usage: wheeledit list <wheel> [subdir]")
		c.Exit(1)
		return
	}

	subdir := ""
	if len(c.Args) > 3 {
		subdir = c.Args[3]
	}

	ed := c.newEditor(c.Args[2])
	defer func() { _ = ed.Cleanup() }()

	files, err := ed.List(subdir)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}
	for _, f := range files {
		fmt.Fprintln(c.Out, f)
	}
}

// RunVerify checks a wheel's RECORD manifest.
func (c *CLI) RunVerify() {
	if len(c.Args) < 3 {
		fmt.Fprintln(c.Out, "Usage: wheeledit verify <wheel>")
		c.Exit(1)
		return
	}

	wheelPath := c.Args[2]
	mismatches, err := c.verifySvc().Verify(wheelPath)
	if err != nil {
		fmt.Fprintf(c.Err, "Verification failed: %v\n", err)
		c.Exit(1)
		return
	}

	if len(mismatches) == 0 {
		fmt.Fprintf(c.Out, "%s RECORD verified for %s\n", c.green("*"), wheelPath)
		return
	}

	for _, m := range mismatches {
		fmt.Fprintf(c.Out, "  %s %s: %s\n", c.red("x"), m.Path, m.Reason)
	}
	fmt.Fprintf(c.Out, "%s %d problem(s) found in %s\n", c.red("x"), len(mismatches), wheelPath)
	c.Exit(1)
}

// RunDiff compares the members of two wheels.
func (c *CLI) RunDiff() {
	if len(c.Args) < 4 {
		fmt.Fprintln(c.Out, "Usage: wheeledit diff <a.whl> <b.whl>")
		c.Exit(1)
		return
	}

	result, err := diff.Compute(c.codec(), c.Args[2], c.Args[3])
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}

	if len(result.Changes) == 0 {
		fmt.Fprintln(c.Out, "Wheels are identical")
		return
	}

	for _, change := range result.Changes {
		switch change.Status {
		case 'M':
			fmt.Fprintf(c.Out, "  %s %s\n", c.yellow("M"), change.Path)
		case 'A':
			fmt.Fprintf(c.Out, "  %s %s\n", c.green("A"), change.Path)
		case 'D':
			fmt.Fprintf(c.Out, "  %s %s\n", c.red("D"), change.Path)
		}
	}
	fmt.Fprintf(c.Out, "\n%s modified, %s added, %s deleted\n",
		c.yellow(fmt.Sprintf("%d", result.Modified)),
		c.green(fmt.Sprintf("%d", result.Added)),
		c.red(fmt.Sprintf("%d", result.Deleted)))
}

// editOptions holds the parsed edit-surface flags.
type editOptions struct {
	inputs       []string
	output       string
	rename       string
	metadataFile string
}

func (o *editOptions) hasModifications() bool {
	return o.rename != "" || o.metadataFile != ""
}

// parseEditArgs parses the edit surface: positional inputs plus
// -o/--output, --rename, --metadata.
func parseEditArgs(args []string) (*editOptions, error) {
	opts := &editOptions{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-o" || arg == "--output":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			i++
			opts.output = args[i]
		case strings.HasPrefix(arg, "--output="):
			opts.output = strings.TrimPrefix(arg, "--output=")
		case arg == "--rename":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--rename requires a value")
			}
			i++
			opts.rename = args[i]
		case strings.HasPrefix(arg, "--rename="):
			opts.rename = strings.TrimPrefix(arg, "--rename=")
		case arg == "--metadata":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--metadata requires a value")
			}
			i++
			opts.metadataFile = args[i]
		case strings.HasPrefix(arg, "--metadata="):
			opts.metadataFile = strings.TrimPrefix(arg, "--metadata=")
		case strings.HasPrefix(arg, "-"):
			return nil, fmt.Errorf("unknown flag: %s", arg)
		default:
			opts.inputs = append(opts.inputs, arg)
		}
	}
	if len(opts.inputs) == 0 {
		return nil, fmt.Errorf("no input wheel file or directory given")
	}
	return opts, nil
}

// RunEdit drives the edit surface: one editor session per wheel file.
func (c *CLI) RunEdit(args []string) {
	opts, err := parseEditArgs(args)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.PrintUsage()
		c.Exit(1)
		return
	}

	cfg, err := c.configSvc().Load()
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(1)
		return
	}

	// Inputs must be all files or all directories, never mixed.
	var missing []string
	dirCount := 0
	for _, in := range opts.inputs {
		info, err := os.Stat(in)
		if err != nil {
			missing = append(missing, in)
			continue
		}
		if info.IsDir() {
			dirCount++
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(c.Err, "Error: input file(s) or directory(ies) not found: %s\n", strings.Join(missing, ", "))
		c.Exit(1)
		return
	}
	if dirCount > 0 && dirCount < len(opts.inputs) {
		fmt.Fprintln(c.Err, "Error: cannot mix files and directories as inputs")
		c.Exit(1)
		return
	}
	isDirMode := dirCount > 0

	if isDirMode && opts.output != "" {
		if info, err := os.Stat(opts.output); err != nil || !info.IsDir() {
			fmt.Fprintln(c.Err, "Error: when processing directories, output must also be a directory")
			c.Exit(1)
			return
		}
	}

	if opts.metadataFile != "" {
		if _, err := os.Stat(opts.metadataFile); err != nil {
			fmt.Fprintf(c.Err, "Error: metadata file not found: %s\n", opts.metadataFile)
			c.Exit(1)
			return
		}
	}

	processed := 0

	if isDirMode {
		for _, dirPath := range opts.inputs {
			entries, err := os.ReadDir(dirPath)
			if err != nil {
				fmt.Fprintf(c.Err, "Error reading %s: %v\n", dirPath, err)
				c.Exit(1)
				return
			}
			var wheels []string
			for _, e := range entries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".whl") {
					wheels = append(wheels, filepath.Join(dirPath, e.Name()))
				}
			}
			if len(wheels) == 0 {
				fmt.Fprintf(c.Out, "No wheel files found in %s\n", dirPath)
				continue
			}
			for _, wheelFile := range wheels {
				ok, outFile, err := c.processWheel(wheelFile, opts, cfg, true)
				if err != nil {
					// The batch contract is not fault-tolerant: report and abort.
					fmt.Fprintf(c.Err, "Error processing %s: %v\n", wheelFile, err)
					c.Exit(1)
					return
				}
				if ok {
					processed++
					fmt.Fprintf(c.Out, "Processed: %s %s %s\n", wheelFile, c.gray("->"), outFile)
				}
			}
		}
	} else {
		for _, wheelFile := range opts.inputs {
			if !strings.HasSuffix(wheelFile, ".whl") {
				fmt.Fprintf(c.Err, "Warning: %s does not appear to be a wheel file\n", wheelFile)
			}
			ok, outFile, err := c.processWheel(wheelFile, opts, cfg, false)
			if err != nil {
				fmt.Fprintf(c.Err, "Error processing %s: %v\n", wheelFile, err)
				c.Exit(1)
				return
			}
			if ok {
				processed++
				fmt.Fprintf(c.Out, "Processed: %s %s %s\n", wheelFile, c.gray("->"), outFile)
			}
		}
	}

	if processed == 0 && opts.hasModifications() {
		fmt.Fprintln(c.Out, "No files were processed successfully")
		c.Exit(1)
	}
}

// outputPathFor resolves where the edited wheel should be written.
func outputPathFor(wheelPath string, opts *editOptions, cfg *config.Config, isDirectory bool) string {
	if opts.output != "" {
		if isDirectory {
			return filepath.Join(opts.output, filepath.Base(wheelPath))
		}
		return opts.output
	}

	dir := filepath.Dir(wheelPath)
	if cfg.OutputDir != "" {
		dir = config.ExpandPath(cfg.OutputDir)
	}

	base := filepath.Base(wheelPath)
	if opts.rename != "" {
		// Swap the name segment of the wheel filename, keeping version and tags.
		if parts := strings.SplitN(base, "-", 2); len(parts) == 2 {
			base = opts.rename + "-" + parts[1]
		} else {
			base = opts.rename + "-" + base
		}
	}
	return filepath.Join(dir, base)
}

// processWheel runs one editor session over one wheel file. Returns whether
// the wheel was modified and where the result was written.
func (c *CLI) processWheel(wheelPath string, opts *editOptions, cfg *config.Config, isDirectory bool) (bool, string, error) {
	ed := c.newEditor(wheelPath)
	defer func() { _ = ed.Cleanup() }()

	// Pure display run: print metadata, no repackaging.
	if !opts.hasModifications() {
		md, err := ed.Metadata()
		if err != nil {
			return false, "", err
		}
		if md != "" {
			fmt.Fprint(c.Out, md)
		}
		return false, "", nil
	}

	outputPath := outputPathFor(wheelPath, opts, cfg, isDirectory)

	if _, err := ed.Unpack(); err != nil {
		return false, "", err
	}

	if opts.rename != "" {
		if _, err := ed.RenamePackage(opts.rename); err != nil {
			return false, "", err
		}
	}

	if opts.metadataFile != "" {
		if err := c.applyMetadata(ed, opts.metadataFile); err != nil {
			return false, "", err
		}
	}

	if cfg.BackupOriginal && outputPath == wheelPath {
		if err := copyAside(wheelPath, wheelPath+".bak"); err != nil {
			return false, "", fmt.Errorf("backing up original: %w", err)
		}
	}

	out, err := ed.Repackage(outputPath)
	if err != nil {
		return false, "", err
	}
	return true, out, nil
}

// applyMetadata applies a metadata source file: a .json mapping updates
// individual fields, anything else replaces METADATA wholesale.
func (c *CLI) applyMetadata(ed EditorSession, metadataFile string) error {
	if strings.ToLower(filepath.Ext(metadataFile)) != ".json" {
		_, err := ed.ReplaceMetadata(metadataFile)
		return err
	}

	data, err := os.ReadFile(metadataFile)
	if err != nil {
		return err
	}
	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("parsing %s: %w", metadataFile, err)
	}

	// A "readme" key points at a description file rather than naming a
	// metadata field directly.
	if readmePath, ok := fields["readme"]; ok {
		delete(fields, "readme")
		readme, err := os.ReadFile(readmePath)
		if err != nil {
			return fmt.Errorf("reading readme %s: %w", readmePath, err)
		}
		fields["Description-Content-Type"] = metadata.ContentTypeForReadme(readmePath)
		if err := ed.UpdateMetadata(fields); err != nil {
			return err
		}
		md, err := ed.Metadata()
		if err != nil {
			return err
		}
		_, err = replaceMetadataText(ed, metadata.SetBody(md, string(readme)))
		return err
	}

	return ed.UpdateMetadata(fields)
}

// replaceMetadataText writes text back as the wheel's METADATA via a temp file.
func replaceMetadataText(ed EditorSession, text string) (string, error) {
	tmp, err := os.CreateTemp("", "wheeledit-metadata-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return ed.ReplaceMetadata(tmpPath)
}

// copyAside copies src to dst without preserving timestamps.
func copyAside(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
