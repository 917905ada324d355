package yamlsrc

import (
	"math"

	"gopkg.in/yaml.v3"

	"github.com/reoring/bindkit"
)

// Register installs the *yaml.Node adapter on b.
func Register(b *bindkit.Builder) { bindkit.Register(b, Node()) }

// Node returns the adapter that builds and produces *yaml.Node trees. Null
// builds a "!!null" node rather than a nil pointer.
func Node() bindkit.Adapter[*yaml.Node] { return nodeAdapter{} }

type nodeAdapter struct{}

func (nodeAdapter) Create(_ *bindkit.Context, s bindkit.Scalar) (*yaml.Node, error) {
	return ScalarNode(s), nil
}

func (nodeAdapter) CreateObject(*bindkit.Context) (bindkit.ObjectBuilderOf[*yaml.Node], error) {
	return &nodeBuilder{n: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}, nil
}

func (nodeAdapter) CreateArray(*bindkit.Context) (bindkit.ArrayBuilderOf[*yaml.Node], error) {
	return &nodeBuilder{n: &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}}, nil
}

func (nodeAdapter) Produce(n *yaml.Node, s bindkit.Sink) error { return ProduceNode(n, s) }

type nodeBuilder struct{ n *yaml.Node }

func (b *nodeBuilder) Put(key string, ctx *bindkit.Context) (bindkit.Sink, error) {
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	return bindkit.SinkFor(ctx, func(v *yaml.Node) error {
		b.n.Content = append(b.n.Content, k, orNull(v))
		return nil
	})
}

func (b *nodeBuilder) Add(ctx *bindkit.Context) (bindkit.Sink, error) {
	return bindkit.SinkFor(ctx, func(v *yaml.Node) error {
		b.n.Content = append(b.n.Content, orNull(v))
		return nil
	})
}

func (b *nodeBuilder) Build() (*yaml.Node, error) { return b.n, nil }

func orNull(n *yaml.Node) *yaml.Node {
	if n == nil {
		return ScalarNode(bindkit.Null())
	}
	return n
}

// ScalarNode renders s as a tagged scalar node.
func ScalarNode(s bindkit.Scalar) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: s.Text()}
	switch s.Kind() {
	case bindkit.KindNull:
		n.Tag = "!!null"
	case bindkit.KindBool:
		n.Tag = "!!bool"
	case bindkit.KindString:
		n.Tag = "!!str"
	case bindkit.KindFloat, bindkit.KindDouble:
		n.Tag = "!!float"
		f := s.DoubleValue()
		if s.Kind() == bindkit.KindFloat {
			f = float64(s.FloatValue())
		}
		switch {
		case math.IsNaN(f):
			n.Value = ".nan"
		case math.IsInf(f, 1):
			n.Value = ".inf"
		case math.IsInf(f, -1):
			n.Value = "-.inf"
		}
	case bindkit.KindDecimal:
		n.Tag = "!!float"
	default:
		n.Tag = "!!int"
	}
	return n
}
