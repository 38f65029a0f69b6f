package grammar

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclFile is the top-level structure of a grammar descriptor file.
type hclFile struct {
	Grammars []*hclGrammar `hcl:"grammar,block"`
}

type hclGrammar struct {
	Name   string            `hcl:"name,label"`
	Tracks int               `hcl:"tracks"`
	NTs    []*hclNonterminal `hcl:"nonterminal,block"`
}

// hclNonterminal keeps its flag attributes as raw expressions so defaults can
// be applied after decoding instead of fighting zero values.
type hclNonterminal struct {
	Name      string         `hcl:"name,label"`
	Tabulated hcl.Expression `hcl:"tabulated,optional"`
	Eval      string         `hcl:"eval,optional"`
	Tables    []*hclTable    `hcl:"table,block"`
}

type hclTable struct {
	DeleteLeft  hcl.Expression `hcl:"delete_left,optional"`
	DeleteRight hcl.Expression `hcl:"delete_right,optional"`
}

// boolAttr evaluates an optional boolean attribute, returning def when the
// attribute is absent or null.
func boolAttr(expr hcl.Expression, def bool) (bool, error) {
	if expr == nil {
		return def, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return false, diags
	}
	if v.IsNull() {
		return def, nil
	}
	if v.Type() != cty.Bool {
		return false, fmt.Errorf("expected bool, got %s", v.Type().FriendlyName())
	}
	return v.True(), nil
}

// LoadFile reads a grammar descriptor from an .hcl file. The descriptor is
// the serialized output of the analysis front end: nonterminal blocks appear
// in topological order, table blocks within a nonterminal follow track order.
func LoadFile(path string) (*Grammar, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing grammar descriptor %s: %w", path, diags)
	}
	return decode(path, file.Body)
}

// LoadBytes decodes a grammar descriptor from memory; filename is only used
// in diagnostics.
func LoadBytes(src []byte, filename string) (*Grammar, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing grammar descriptor %s: %w", filename, diags)
	}
	return decode(filename, file.Body)
}

func decode(path string, body hcl.Body) (*Grammar, error) {
	var parsed hclFile
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("decoding grammar descriptor %s: %w", path, diags)
	}
	if len(parsed.Grammars) != 1 {
		return nil, fmt.Errorf("descriptor %s: expected exactly one grammar block, found %d",
			path, len(parsed.Grammars))
	}
	src := parsed.Grammars[0]
	if src.Tracks < 1 {
		return nil, fmt.Errorf("grammar %q: tracks must be at least 1, got %d",
			src.Name, src.Tracks)
	}

	g := New(src.Name, src.Tracks)
	for _, hnt := range src.NTs {
		nt := &Nonterminal{Name: hnt.Name}

		tabulated, err := boolAttr(hnt.Tabulated, true)
		if err != nil {
			return nil, fmt.Errorf("nonterminal %q: tabulated: %w", hnt.Name, err)
		}
		nt.Tabulated = tabulated

		nt.EvalName = hnt.Eval
		if nt.EvalName == "" && nt.Tabulated {
			nt.EvalName = "nt_tabulate_" + hnt.Name
		}

		if len(hnt.Tables) > src.Tracks {
			return nil, fmt.Errorf("nonterminal %q: %d table blocks for %d tracks",
				hnt.Name, len(hnt.Tables), src.Tracks)
		}
		nt.Tables = make([]TableDescriptor, src.Tracks)
		for t, ht := range hnt.Tables {
			dl, err := boolAttr(ht.DeleteLeft, false)
			if err != nil {
				return nil, fmt.Errorf("nonterminal %q, table %d: delete_left: %w", hnt.Name, t, err)
			}
			dr, err := boolAttr(ht.DeleteRight, false)
			if err != nil {
				return nil, fmt.Errorf("nonterminal %q, table %d: delete_right: %w", hnt.Name, t, err)
			}
			nt.Tables[t] = TableDescriptor{DeleteLeft: dl, DeleteRight: dr}
		}

		g.Add(nt)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
