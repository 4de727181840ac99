// Aril interface compiler - translates a checked unit's type table into
// its interface document.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/aril-lang/aril/compiler/bindgen"
	"github.com/aril-lang/aril/compiler/idl"
	"github.com/aril-lang/aril/compiler/types"
	"github.com/aril-lang/aril/manifest"
	"github.com/aril-lang/aril/schemastore"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	output := flag.String("o", "", "Output path for the textual interface document (default stdout)")
	wire := flag.String("wire", "", "Output path for the canonical binary document")
	storePath := flag.String("store", "", "Schema store database to record the document in")
	bindDir := flag.String("bind", "", "Directory to write generated Go bindings to")
	bindPkg := flag.String("pkg", "", "Package name for generated bindings")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: arilc [options] unit.types\n\n")
		fmt.Fprintf(os.Stderr, "Translates a checked unit's type table into its interface document.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  arilc ledger.types                 # Print the interface document\n")
		fmt.Fprintf(os.Stderr, "  arilc -o ledger.ail ledger.types   # Write it to a file\n")
		fmt.Fprintf(os.Stderr, "  arilc -bind gen ledger.types       # Also generate Go bindings\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
	log := commonlog.GetLogger("arilc")

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	// A project manifest fills in unset outputs.
	m, err := manifest.FindAndLoad(filepath.Dir(input))
	if err != nil {
		fatal("loading manifest: %v", err)
	}
	if m != nil {
		log.Infof("using manifest in %s", m.Dir)
		if *output == "" {
			*output = m.Resolve(m.Interface.Output)
		}
		if *wire == "" {
			*wire = m.Resolve(m.Interface.Wire)
		}
		if *storePath == "" {
			*storePath = m.Resolve(m.Interface.Store)
		}
		if *bindDir == "" {
			*bindDir = m.Resolve(m.Interface.Bindings)
		}
		if *bindPkg == "" {
			*bindPkg = m.Interface.Package
		}
	}

	data, err := os.ReadFile(input)
	if err != nil {
		fatal("reading unit: %v", err)
	}
	unit, err := types.DecodeUnit(data)
	if err != nil {
		fatal("decoding unit: %v", err)
	}
	log.Infof("unit %s: %d constructors", unit.Name, len(unit.Cons))

	doc, err := idl.Translate(unit)
	if err != nil {
		// A defect here means the checker let an unsupported type through;
		// it is fatal to this compilation, not to the host process.
		fatal("translating %s: %v", unit.Name, err)
	}
	log.Infof("translated %d declarations", len(doc.Decls))

	text := doc.Text()
	if *output == "" || *output == "-" {
		fmt.Print(text)
	} else if err := os.WriteFile(*output, []byte(text), 0o644); err != nil {
		fatal("writing document: %v", err)
	}

	if *wire != "" {
		bin, err := idl.MarshalDocument(doc)
		if err != nil {
			fatal("encoding document: %v", err)
		}
		if err := os.WriteFile(*wire, bin, 0o644); err != nil {
			fatal("writing binary document: %v", err)
		}
	}

	if *storePath != "" {
		id, err := storeDocument(*storePath, unit.Name, doc)
		if err != nil {
			fatal("storing document: %v", err)
		}
		log.Infof("stored document %s", id)
	}

	if *bindDir != "" {
		res, err := bindgen.Generate(doc, *bindPkg)
		if err != nil {
			fatal("generating bindings: %v", err)
		}
		for _, w := range res.Warnings {
			log.Warningf("bindgen: %s", w)
		}
		if err := os.MkdirAll(*bindDir, 0o755); err != nil {
			fatal("creating bindings directory: %v", err)
		}
		name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".go"
		path := filepath.Join(*bindDir, name)
		if err := os.WriteFile(path, []byte(res.Code), 0o644); err != nil {
			fatal("writing bindings: %v", err)
		}
		log.Infof("wrote bindings to %s", path)
	}
}

// storeDocument records the document in the schema store at path. The
// store is closed before returning so the database is left consistent
// even when the caller exits on a later error.
func storeDocument(path, unit string, doc *idl.Document) (string, error) {
	store, err := schemastore.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening schema store: %w", err)
	}
	defer store.Close()
	return store.Put(unit, doc)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "arilc: "+format+"\n", args...)
	os.Exit(1)
}
