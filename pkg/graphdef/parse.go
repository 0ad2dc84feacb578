package graphdef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-graphir/pkg/validation"
)

// ErrInvalidDefinition reports a description that cannot be decoded or does
// not describe a well-formed graph.
var ErrInvalidDefinition = errors.New("invalid graph definition")

// Parse decodes and validates a description. Unknown keys are rejected.
func Parse(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDefinition)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := validation.Struct(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := def.check(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return &def, nil
}

// check catches repeated node names before any graph is built.
func (def *Definition) check() error {
	names := make([]string, len(def.Nodes))
	for i, nd := range def.Nodes {
		names[i] = nd.Name
	}
	c := validation.NewChecker(def.Name).Names("nodes", names)
	for i := range def.Subgraphs {
		sd := &def.Subgraphs[i]
		c.Check("subgraphs."+sd.Graph.Name, sd.Graph.check)
	}
	return c.Err()
}

// Load reads a description file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph definition %s: %w", path, err)
	}
	def, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Marshal encodes def as YAML.
func Marshal(def *Definition) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// endpoint is a parsed edge end: a node name and, for data edges, an index.
type endpoint struct {
	node  string
	index int
}

// parseEndpoint splits "node:index". Node names may themselves contain
// colons, so the index is taken after the last one.
func parseEndpoint(s string, control bool) (endpoint, error) {
	if control {
		return endpoint{node: s, index: -1}, nil
	}
	i := strings.LastIndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return endpoint{}, fmt.Errorf("%w: data endpoint %q must be node:index", ErrInvalidDefinition, s)
	}
	idx, err := strconv.Atoi(s[i+1:])
	if err != nil || idx < 0 {
		return endpoint{}, fmt.Errorf("%w: data endpoint %q has a bad index", ErrInvalidDefinition, s)
	}
	return endpoint{node: s[:i], index: idx}, nil
}

func (e endpoint) String() string {
	if e.index < 0 {
		return e.node
	}
	return e.node + ":" + strconv.Itoa(e.index)
}
