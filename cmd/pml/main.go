// Command pml renders prompt IR documents into chat messages and markup
// output formats.
package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/alecthomas/kong"

	pmlerrors "github.com/pmlang/pml/core/errors"
	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/message"
	"github.com/pmlang/pml/core/writer"
	"github.com/pmlang/pml/core/xmltree"
	"github.com/pmlang/pml/internal/logging"
	"github.com/pmlang/pml/internal/trace"
)

const version = "0.1.0"

// CLI defines the command-line interface for pml.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format"`

	Render  RenderCmd  `cmd:"" help:"Render an IR document"`
	Inspect InspectCmd `cmd:"" help:"Query an IR document with XPath"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// RenderCmd renders an IR document to chat messages or raw output.
type RenderCmd struct {
	File   string `arg:"" help:"Path to IR document" type:"existingfile"`
	Output string `short:"o" help:"Write output to file instead of stdout" type:"path"`
	Chat   bool   `default:"true" negatable:"" help:"Split output into chat messages by speaker"`
	Format string `default:"messages" enum:"raw,messages,openai,langchain" help:"Output format"`
	Pretty bool   `help:"Indent JSON output"`

	TraceDir        string `name:"trace-dir" env:"PML_TRACE" help:"Record render calls under this directory"`
	BaseHeaderLevel int    `name:"base-header-level" default:"1" help:"Level added to rendered headers"`
	TableCollapse   bool   `name:"table-collapse" help:"Cap table separator dashes at 3"`
}

func (c *RenderCmd) Run() error {
	started := time.Now()

	source, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	opts := writer.DefaultOptions()
	opts.BaseHeaderLevel = c.BaseHeaderLevel
	opts.TableCollapse = c.TableCollapse

	tree, err := ir.Parse(string(source))
	if err != nil {
		return err
	}
	errs := pmlerrors.NewCollection()
	res := writer.Write(tree, opts, errs)
	speakers := writer.AssignSpeakers(tree, res, errs)

	var msgs []message.Message
	if c.Chat {
		msgs = message.Split(res.Text, res.Media, speakers)
	} else {
		content := message.Assemble(res.Text, res.Media)
		if len(content) > 0 {
			sp := ir.SpeakerHuman
			if len(speakers) > 0 {
				sp = speakers[0].Speaker
			}
			msgs = []message.Message{{Speaker: sp, Content: content}}
		}
	}

	output, err := c.encode(res, msgs)
	if err != nil {
		return err
	}

	if c.Output != "" {
		if err := os.WriteFile(c.Output, output, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		fmt.Println(string(output))
	}

	for _, w := range errs.Warnings() {
		logging.Warn(w)
	}
	for _, we := range errs.Errors() {
		logging.WriteIssue(we.Message, we.SourceStart, we.SourceEnd)
	}
	logging.RenderEvent(c.File, len(res.Text), len(msgs), errs.Len(), time.Since(started))

	if c.TraceDir != "" {
		if err := c.record(string(source), res, msgs); err != nil {
			logging.Error("trace recording failed", "error", err)
		}
	}

	if first := errs.First(); first != nil {
		return first
	}
	return nil
}

// encode serializes the render result in the requested output format.
func (c *RenderCmd) encode(res writer.Result, msgs []message.Message) ([]byte, error) {
	var v interface{}
	switch c.Format {
	case "raw":
		return []byte(res.Text), nil
	case "messages":
		v = msgs
	case "openai":
		chat, err := message.ToOpenAIChat(msgs)
		if err != nil {
			return nil, err
		}
		v = chat
	case "langchain":
		v = message.ToLangChain(msgs)
	}

	if c.Pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// record writes the call into the trace directory, storing media payloads in
// the content-addressed store.
func (c *RenderCmd) record(source string, res writer.Result, msgs []message.Message) error {
	tracer, err := trace.New(c.TraceDir)
	if err != nil {
		return err
	}
	logging.TraceEvent("record", tracer.Dir())

	var recorded interface{}
	if len(msgs) > 0 {
		recorded = msgs
	}
	if _, err := tracer.RecordCall(source, res, recorded); err != nil {
		return err
	}
	for _, occ := range res.Media {
		data, err := base64.StdEncoding.DecodeString(occ.Base64)
		if err != nil {
			logging.Warn("skipping undecodable media payload", "type", occ.Type)
			continue
		}
		if _, err := tracer.StoreMedia(data); err != nil {
			return err
		}
	}
	return nil
}

// InspectCmd summarizes an IR document's structure, or prints the elements
// matching an XPath query.
type InspectCmd struct {
	File  string `arg:"" help:"Path to IR document" type:"existingfile"`
	XPath string `name:"xpath" help:"XPath expression to evaluate instead of the summary"`
}

func (c *InspectCmd) Run() error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if c.XPath != "" {
		doc, err := xmltree.Parse(data)
		if err != nil {
			return err
		}
		matches, err := doc.XPath(c.XPath)
		if err != nil {
			return err
		}
		for _, el := range matches {
			fmt.Println(el.Serialize(xmltree.FormatOptions{Indent: "  "}))
		}
		logging.Debug("inspect", "file", c.File, "matches", len(matches))
		return nil
	}

	tree, err := ir.Parse(string(data))
	if err != nil {
		return err
	}
	summarize(tree)
	return nil
}

// summarize prints a tag histogram, the env modes in use, and the tree depth.
func summarize(tree *ir.Tree) {
	tags := map[ir.Tag]int{}
	modes := map[string]int{}
	for id := range tree.Nodes {
		n := tree.Node(ir.NodeID(id))
		tags[n.Tag]++
		if n.Tag == ir.TagEnv {
			modes[envMode(tree, ir.NodeID(id))]++
		}
	}

	fmt.Printf("nodes: %d, depth: %d\n", len(tree.Nodes), depth(tree, tree.Root()))
	names := make([]string, 0, len(tags))
	for tag := range tags {
		names = append(names, string(tag))
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-6s %d\n", name, tags[ir.Tag(name)])
	}
	if len(modes) > 0 {
		names = names[:0]
		for mode := range modes {
			names = append(names, mode)
		}
		sort.Strings(names)
		fmt.Println("env modes:")
		for _, name := range names {
			fmt.Printf("  %-20s %d\n", name, modes[name])
		}
	}
}

func envMode(tree *ir.Tree, id ir.NodeID) string {
	pres, ok := tree.Attr(id, ir.AttrPresentation)
	if !ok {
		return "(missing)"
	}
	if detail, ok := tree.Attr(id, ir.AttrMarkupLang); ok {
		return pres + "/" + detail
	}
	if detail, ok := tree.Attr(id, ir.AttrSerializer); ok {
		return pres + "/" + detail
	}
	return pres
}

func depth(tree *ir.Tree, id ir.NodeID) int {
	max := 0
	for _, child := range tree.Node(id).Children {
		if child.IsText() {
			continue
		}
		if d := depth(tree, child.Node); d > max {
			max = d
		}
	}
	return max + 1
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("pml version %s\n", version)
	return nil
}

func logLevel(name string) logging.Level {
	switch name {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("pml"),
		kong.Description("Prompt markup renderer - IR to chat messages and markup formats"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(logLevel(CLI.LogLevel), format)

	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
