package compile

import (
	"encoding/json"
	"fmt"

	"github.com/zkrdf/zksparql/rdf"
)

// HiddenKind tags one hidden-input plan entry.
type HiddenKind int

const (
	// HiddenRef supplies the encoding of an input slot position directly.
	HiddenRef HiddenKind = iota
	// HiddenStatic supplies the encoding of a fixed term.
	HiddenStatic
	// HiddenComputed supplies a decomposition component of the term the
	// Source resolves to.
	HiddenComputed
)

// HiddenInput describes one auxiliary witness value. The list order is
// the positional contract between compiled metadata and the witness
// binder and must never be reordered.
type HiddenInput struct {
	Kind     HiddenKind
	Source   *Term // TermInput or TermVariable
	Computed CustomKind
	Static   rdf.Term
}

// Metadata is the compiler's machine-readable output artifact: the
// fixed contract a witness must satisfy per proof.
type Metadata struct {
	Variables      []string
	RequiredInputs []PatternSlot
	OptionalInputs []PatternSlot
	HiddenInputs   []HiddenInput
	TreeDepth      int
}

// NumSlots returns the circuit's input slot count.
func (m *Metadata) NumSlots() int {
	return len(m.RequiredInputs) + len(m.OptionalInputs)
}

// termWire is the JSON form of an rdf.Term.
type termWire struct {
	Kind     string `json:"kind"`
	Value    string `json:"value,omitempty"`
	Language string `json:"language,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func termToWire(t rdf.Term) termWire {
	return termWire{
		Kind:     t.Kind.String(),
		Value:    t.Value,
		Language: t.Language,
		Datatype: t.Datatype,
	}
}

func termFromWire(w termWire) (rdf.Term, error) {
	var kind rdf.TermKind
	switch w.Kind {
	case rdf.KindNamedNode.String():
		kind = rdf.KindNamedNode
	case rdf.KindBlankNode.String():
		kind = rdf.KindBlankNode
	case rdf.KindLiteral.String():
		kind = rdf.KindLiteral
	case rdf.KindVariable.String():
		kind = rdf.KindVariable
	case rdf.KindDefaultGraph.String():
		kind = rdf.KindDefaultGraph
	default:
		return rdf.Term{}, fmt.Errorf("compile: unknown term kind %q", w.Kind)
	}
	return rdf.Term{Kind: kind, Value: w.Value, Language: w.Language, Datatype: w.Datatype}, nil
}

type patternWire struct {
	Subject   termWire `json:"subject"`
	Predicate termWire `json:"predicate"`
	Object    termWire `json:"object"`
}

type hiddenWire struct {
	Kind     string    `json:"kind"`
	Computed string    `json:"computed,omitempty"`
	Slot     *int      `json:"slot,omitempty"`
	Pos      *int      `json:"pos,omitempty"`
	Var      string    `json:"var,omitempty"`
	Static   *termWire `json:"static,omitempty"`
}

type metadataWire struct {
	Variables      []string      `json:"variables"`
	RequiredInputs []patternWire `json:"requiredInputs"`
	OptionalInputs []patternWire `json:"optionalInputs"`
	HiddenInputs   []hiddenWire  `json:"hiddenInputs"`
	TreeDepth      int           `json:"treeDepth"`
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	w := metadataWire{
		Variables: m.Variables,
		TreeDepth: m.TreeDepth,
	}
	for _, p := range m.RequiredInputs {
		w.RequiredInputs = append(w.RequiredInputs, patternToWire(p))
	}
	for _, p := range m.OptionalInputs {
		w.OptionalInputs = append(w.OptionalInputs, patternToWire(p))
	}
	for _, h := range m.HiddenInputs {
		hw, err := hiddenToWire(h)
		if err != nil {
			return nil, err
		}
		w.HiddenInputs = append(w.HiddenInputs, hw)
	}
	return json.Marshal(w)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var w metadataWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Metadata{Variables: w.Variables, TreeDepth: w.TreeDepth}
	for _, p := range w.RequiredInputs {
		slot, err := patternFromWire(p)
		if err != nil {
			return err
		}
		out.RequiredInputs = append(out.RequiredInputs, slot)
	}
	for _, p := range w.OptionalInputs {
		slot, err := patternFromWire(p)
		if err != nil {
			return err
		}
		out.OptionalInputs = append(out.OptionalInputs, slot)
	}
	for _, hw := range w.HiddenInputs {
		h, err := hiddenFromWire(hw)
		if err != nil {
			return err
		}
		out.HiddenInputs = append(out.HiddenInputs, h)
	}
	*m = out
	return nil
}

func patternToWire(p PatternSlot) patternWire {
	return patternWire{
		Subject:   termToWire(p.Subject),
		Predicate: termToWire(p.Predicate),
		Object:    termToWire(p.Object),
	}
}

func patternFromWire(w patternWire) (PatternSlot, error) {
	s, err := termFromWire(w.Subject)
	if err != nil {
		return PatternSlot{}, err
	}
	p, err := termFromWire(w.Predicate)
	if err != nil {
		return PatternSlot{}, err
	}
	o, err := termFromWire(w.Object)
	if err != nil {
		return PatternSlot{}, err
	}
	return PatternSlot{Subject: s, Predicate: p, Object: o}, nil
}

func hiddenToWire(h HiddenInput) (hiddenWire, error) {
	switch h.Kind {
	case HiddenStatic:
		w := termToWire(h.Static)
		return hiddenWire{Kind: "static", Static: &w}, nil
	case HiddenRef, HiddenComputed:
		out := hiddenWire{Kind: "ref"}
		if h.Kind == HiddenComputed {
			out.Kind = "computed"
			out.Computed = h.Computed.String()
		}
		switch h.Source.Kind {
		case TermInput:
			slot, pos := h.Source.Slot, h.Source.Pos
			out.Slot, out.Pos = &slot, &pos
		case TermVariable:
			out.Var = h.Source.Name
		default:
			return hiddenWire{}, fmt.Errorf("compile: hidden input source %s is not a slot or variable", h.Source)
		}
		return out, nil
	default:
		return hiddenWire{}, fmt.Errorf("compile: unknown hidden input kind %d", h.Kind)
	}
}

func hiddenFromWire(w hiddenWire) (HiddenInput, error) {
	switch w.Kind {
	case "static":
		if w.Static == nil {
			return HiddenInput{}, fmt.Errorf("compile: static hidden input without term")
		}
		t, err := termFromWire(*w.Static)
		if err != nil {
			return HiddenInput{}, err
		}
		return HiddenInput{Kind: HiddenStatic, Static: t}, nil
	case "ref", "computed":
		h := HiddenInput{Kind: HiddenRef}
		if w.Kind == "computed" {
			h.Kind = HiddenComputed
			switch w.Computed {
			case CustomLiteralValue.String():
				h.Computed = CustomLiteralValue
			case CustomLiteralLang.String():
				h.Computed = CustomLiteralLang
			case CustomNumeric.String():
				h.Computed = CustomNumeric
			case CustomInner.String():
				h.Computed = CustomInner
			default:
				return HiddenInput{}, fmt.Errorf("compile: unknown hidden computation %q", w.Computed)
			}
		}
		switch {
		case w.Slot != nil && w.Pos != nil:
			h.Source = InputRef(*w.Slot, *w.Pos)
		case w.Var != "":
			h.Source = Variable(w.Var)
		default:
			return HiddenInput{}, fmt.Errorf("compile: hidden input without source")
		}
		return h, nil
	default:
		return HiddenInput{}, fmt.Errorf("compile: unknown hidden input kind %q", w.Kind)
	}
}
