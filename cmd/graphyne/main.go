package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/graphyne/graphyne/internal/eventbus"
	"github.com/graphyne/graphyne/internal/hostrt"
	"github.com/graphyne/graphyne/internal/hostval"
	"github.com/graphyne/graphyne/internal/otel"
	"github.com/graphyne/graphyne/internal/schema"
	"github.com/graphyne/graphyne/internal/server"
)

const rootUsage = `graphyne — GraphQL engine over host data & tools

USAGE:
  graphyne <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL endpoint over a schema and data file
  validate         Decode and build a schema document, reporting violations
  render-sdl       Render a schema document as GraphQL SDL
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -schema.file <file>        Schema document in YAML (required)
  -schema.data <file>        Root data in YAML; resolverless fields read from it
  -server.addr <addr>        HTTP listen address (default: :8080)
  -server.pretty             Pretty-print JSON responses
  -server.timeout <duration> Per-request timeout, e.g. 10s (default: 10s)
  -server.graphiql <bool>    Serve the GraphiQL IDE on GET (default: true)
  -engine.workers <n>        Worker goroutines per async batch
  -engine.current-thread     Resolve async batches on the calling goroutine
  -otel.endpoint <addr>      OTLP collector endpoint
  -otel.service <name>       OpenTelemetry service name (default: graphyne)
`

const validateUsage = `validate FLAGS:
  -schema.file <file>  Schema document in YAML (required)
  (Exits non-zero on validation or build errors)
`

const renderSDLUsage = `render-sdl FLAGS:
  -schema.file <file>  Schema document in YAML (required)
  -out <file>          Write SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("graphyne", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "validate":
		return cmdValidate(cmdArgs)
	case "render-sdl":
		return cmdRenderSDL(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "validate":
		fmt.Print(validateUsage)
	case "render-sdl":
		fmt.Print(renderSDLUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func loadSchema(file string) (*schema.Schema, error) {
	if file == "" {
		return nil, fmt.Errorf("-schema.file is required")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	doc, err := schema.DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	sch, err := schema.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return sch, nil
}

func loadRootData(file string) (any, error) {
	if file == "" {
		return nil, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode root data: %w", err)
	}
	return root, nil
}

func cmdServe(args []string) error {
	schemaFile := ""
	dataFile := ""
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	graphiql := true
	workers := 0
	currentThread := false
	otelEndpoint := ""
	otelService := "graphyne"

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema.file", schemaFile, "Schema document in YAML")
	fs.StringVar(&dataFile, "schema.data", dataFile, "Root data in YAML")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.BoolVar(&graphiql, "server.graphiql", graphiql, "Serve the GraphiQL IDE on GET")
	fs.IntVar(&workers, "engine.workers", workers, "Worker goroutines per async batch")
	fs.BoolVar(&currentThread, "engine.current-thread", currentThread, "Resolve async batches on the calling goroutine")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}

	sch, err := loadSchema(schemaFile)
	if err != nil {
		if schemaFile == "" {
			fmt.Fprint(os.Stderr, serveUsage)
		}
		return err
	}
	root, err := loadRootData(dataFile)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	loop := hostval.NewLoop()
	defer loop.Close()

	// No resolvers are registered; every field reads attributes from the
	// root data through the resolverless path.
	runtime, err := hostrt.NewRuntime(loop, sch, hostrt.NewRegistry(), hostrt.Options{
		UseCurrentThread: currentThread,
		WorkerThreads:    workers,
	})
	if err != nil {
		return fmt.Errorf("runtime init: %w", err)
	}

	sopts := []server.Option{server.WithGraphiQL(graphiql)}
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	if root != nil {
		sopts = append(sopts, server.WithRootValue(root))
	}
	h, err := server.New(runtime, sch, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)

	log.Printf("GraphQL server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func cmdValidate(args []string) error {
	schemaFile := ""
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema.file", schemaFile, "Schema document in YAML")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, validateUsage)
		return err
	}
	if _, err := loadSchema(schemaFile); err != nil {
		if schemaFile == "" {
			fmt.Fprint(os.Stderr, validateUsage)
		}
		return err
	}
	fmt.Println("OK")
	return nil
}

func cmdRenderSDL(args []string) error {
	schemaFile := ""
	outFile := ""
	fs := flag.NewFlagSet("render-sdl", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema.file", schemaFile, "Schema document in YAML")
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, renderSDLUsage)
		return err
	}
	sch, err := loadSchema(schemaFile)
	if err != nil {
		if schemaFile == "" {
			fmt.Fprint(os.Stderr, renderSDLUsage)
		}
		return err
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		fmt.Print(sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}
