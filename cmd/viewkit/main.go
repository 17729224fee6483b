package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-viewkit"
	"github.com/goliatone/go-viewkit/pkg/config"
	"github.com/goliatone/go-viewkit/pkg/resolver"
)

// setFlags collects repeated -set key=value flags.
type setFlags map[string]any

func (s setFlags) String() string {
	parts := make([]string, 0, len(s))
	for key, value := range s {
		parts = append(parts, fmt.Sprintf("%s=%v", key, value))
	}
	return strings.Join(parts, ",")
}

func (s setFlags) Set(raw string) error {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", raw)
	}
	s[key] = value
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr, terminalPrompter()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logrus.WithError(err).Fatal("viewkit failed")
	}
}

func run(args []string, stdout, stderr io.Writer, prompt prompter) error {
	flags := flag.NewFlagSet("viewkit", flag.ContinueOnError)
	flags.SetOutput(stderr)

	configPath := flags.String("config", "", "config file (JSON or YAML)")
	views := flags.String("views", "", "comma separated view paths, searched in order")
	cacheRoot := flags.String("cache", "", "cache root for engine cache/compile dirs")
	engineName := flags.String("engine", "", "engine driver (pongo2, html)")
	ext := flags.String("ext", "", "template extension")
	dataPath := flags.String("data", "", "JSON or YAML file with template variables")
	output := flags.String("output", "", "output file (stdout if empty)")
	list := flags.Bool("list", false, "list available views and exit")
	interactive := flags.Bool("i", false, "prompt for the view and extra variables")
	verbose := flags.Bool("v", false, "debug logging")
	sets := setFlags{}
	flags.Var(sets, "set", "template variable key=value (repeatable)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *views != "" {
		cfg.ViewPaths = strings.Split(*views, ",")
	}
	if *cacheRoot != "" {
		cfg.CacheRoot = *cacheRoot
	}
	if *engineName != "" {
		cfg.Engine = *engineName
	}
	if *ext != "" {
		cfg.Extension = *ext
	}
	cfg = cfg.WithDefaults()

	if *list {
		names, err := availableViews(cfg)
		if err != nil {
			return fmt.Errorf("list views: %w", err)
		}
		for _, name := range names {
			if _, err := fmt.Fprintln(stdout, name); err != nil {
				return err
			}
		}
		return nil
	}

	if !*interactive {
		prompt = nil
	} else if prompt == nil {
		logger.Warn("stdin is not a terminal, prompts disabled")
	}

	name := flags.Arg(0)
	if name == "" {
		if prompt == nil {
			return errors.New("usage: viewkit [flags] <view>")
		}
		names, err := availableViews(cfg)
		if err != nil {
			return fmt.Errorf("list views: %w", err)
		}
		if name, err = chooseView(prompt, names); err != nil {
			return err
		}
	}

	data, err := loadData(*dataPath)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	for key, value := range sets {
		data[key] = value
	}
	if prompt != nil {
		if err := promptVars(prompt, data); err != nil {
			return err
		}
	}

	factory, err := viewkit.New(cfg, viewkit.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("configure views: %w", err)
	}

	v, err := factory.New(name, data)
	if err != nil {
		return err
	}

	rendered, err := v.Render()
	if err != nil {
		return err
	}

	if *output == "" {
		_, err := io.WriteString(stdout, rendered)
		return err
	}
	if err := atomic.WriteFile(*output, strings.NewReader(rendered)); err != nil {
		return fmt.Errorf("write %s: %w", *output, err)
	}
	logger.WithField("output", *output).Info("view written")
	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func loadData(path string) (map[string]any, error) {
	data := map[string]any{}
	if path == "" {
		return data, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err == nil {
		return data, nil
	}
	data = map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("data file %s is neither JSON nor YAML: %w", path, err)
	}
	return data, nil
}

func availableViews(cfg config.Config) ([]string, error) {
	roots, err := resolver.Dirs(cfg.ViewPaths...)
	if err != nil {
		return nil, err
	}
	return resolver.New(roots).List(cfg.Category, cfg.Extension)
}
