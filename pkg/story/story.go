// Package story holds the authored, read-only content a session plays
// through: characters, variable declarations, nodes, options and
// decision tables. Content is supplied by the authoring tools and is
// never mutated during play.
package story

import (
	"sort"

	"github.com/google/uuid"
	"github.com/tejedor/trama/pkg/state"
	"github.com/tejedor/trama/pkg/textnorm"
)

// Character is a playable role defined by the story.
type Character struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// VariableDeclaration declares one typed variable for one character.
// Declarations are frozen at session start; names are unique per
// character after normalization.
type VariableDeclaration struct {
	CharacterID uuid.UUID  `json:"character_id"`
	Name        string     `json:"name"`
	Kind        state.Kind `json:"kind"`
	Initial     any        `json:"initial,omitempty"`
}

// NodeKind classifies a narrative node.
type NodeKind string

const (
	NodeNarrative NodeKind = "narrative"
	NodeDecision  NodeKind = "decision"
	NodeEvent     NodeKind = "event"
	NodeEnding    NodeKind = "ending"
)

// AltContent is a conditional replacement for a node's base content.
// The first alternative whose conditions pass wins.
type AltContent struct {
	Content string      `json:"content"`
	When    []Condition `json:"when,omitempty"`
}

// Node is one narrative situation. It is owned by one character, though
// participants of a decision table anchored at the node may also act
// there (joint nodes).
type Node struct {
	ID           uuid.UUID    `json:"id"`
	CharacterID  uuid.UUID    `json:"character_id"`
	Kind         NodeKind     `json:"kind"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	Victory      bool         `json:"victory,omitempty"` // endings only
	Visibility   []Condition  `json:"visibility,omitempty"`
	Alternatives []AltContent `json:"alternatives,omitempty"`
}

// EffectOp is the closed set of operations an option may apply to a
// variable. Keeping the set closed (rather than interpreting arbitrary
// operator strings at runtime) is what pins down the coercion and
// absent-value rules.
type EffectOp string

const (
	OpSet EffectOp = "set"
	OpAdd EffectOp = "add"
	OpSub EffectOp = "sub"
	OpMul EffectOp = "mul"
	OpDiv EffectOp = "div"
)

// Effect mutates one variable of the acting character's state.
type Effect struct {
	Variable string   `json:"variable"`
	Op       EffectOp `json:"op"`
	Operand  any      `json:"operand"`
}

// Option is a choice available at a node. DirectTarget, when set, always
// wins over decision-table resolution.
type Option struct {
	ID           uuid.UUID   `json:"id"`
	NodeID       uuid.UUID   `json:"node_id"`
	Text         string      `json:"text"`
	DirectTarget uuid.UUID   `json:"direct_target,omitempty"`
	Effects      []Effect    `json:"effects,omitempty"`
	Visibility   []Condition `json:"visibility,omitempty"`
	Order        int         `json:"order"`
}

// DecisionTable maps the joint choice of its participants at an origin
// node to per-character destinations. At most one table exists per
// origin node within a story.
type DecisionTable struct {
	ID           uuid.UUID                          `json:"id"`
	OriginNodeID uuid.UUID                          `json:"origin_node_id"`
	Participants []uuid.UUID                        `json:"participants"`
	Mappings     map[string]map[uuid.UUID]uuid.UUID `json:"mappings,omitempty"`
	Default      map[uuid.UUID]uuid.UUID            `json:"default,omitempty"`
}

// HasParticipant reports whether a character takes part in this table.
func (t *DecisionTable) HasParticipant(characterID uuid.UUID) bool {
	for _, p := range t.Participants {
		if p == characterID {
			return true
		}
	}
	return false
}

// Story is the full authored bundle for one narrative, loaded from a
// JSON file in the data directory.
type Story struct {
	Name         string                  `json:"name"`
	FileName     string                  `json:"file_name"`
	Characters   []Character             `json:"characters"`
	Declarations []VariableDeclaration   `json:"declarations,omitempty"`
	Nodes        []Node                  `json:"nodes"`
	Options      []Option                `json:"options"`
	Tables       []DecisionTable         `json:"tables,omitempty"`
	Openings     map[uuid.UUID]uuid.UUID `json:"openings"` // character -> opening node
}

// Normalize folds variable names in declarations, effects and conditions
// so authored accents and casing cannot break references. Called once at
// load time.
func (s *Story) Normalize() {
	for i := range s.Declarations {
		s.Declarations[i].Name = textnorm.Fold(s.Declarations[i].Name)
	}
	for i := range s.Options {
		opt := &s.Options[i]
		for j := range opt.Effects {
			opt.Effects[j].Variable = textnorm.Fold(opt.Effects[j].Variable)
		}
		normalizeConditions(opt.Visibility)
	}
	for i := range s.Nodes {
		normalizeConditions(s.Nodes[i].Visibility)
		for j := range s.Nodes[i].Alternatives {
			normalizeConditions(s.Nodes[i].Alternatives[j].When)
		}
	}
}

func normalizeConditions(conds []Condition) {
	for i := range conds {
		conds[i].Variable = textnorm.Fold(conds[i].Variable)
	}
}

// Node returns the node with the given ID, or nil.
func (s *Story) Node(id uuid.UUID) *Node {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}

// Option returns the option with the given ID, or nil.
func (s *Story) Option(id uuid.UUID) *Option {
	for i := range s.Options {
		if s.Options[i].ID == id {
			return &s.Options[i]
		}
	}
	return nil
}

// Character returns the character with the given ID, or nil.
func (s *Story) Character(id uuid.UUID) *Character {
	for i := range s.Characters {
		if s.Characters[i].ID == id {
			return &s.Characters[i]
		}
	}
	return nil
}

// TableFor returns the decision table anchored at the origin node, or
// nil when the node has none.
func (s *Story) TableFor(originNodeID uuid.UUID) *DecisionTable {
	for i := range s.Tables {
		if s.Tables[i].OriginNodeID == originNodeID {
			return &s.Tables[i]
		}
	}
	return nil
}

// OptionsFor returns a node's options sorted by authored order.
func (s *Story) OptionsFor(nodeID uuid.UUID) []Option {
	var opts []Option
	for _, o := range s.Options {
		if o.NodeID == nodeID {
			opts = append(opts, o)
		}
	}
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Order < opts[j].Order })
	return opts
}

// DeclarationsFor returns the declarations scoped to one character.
func (s *Story) DeclarationsFor(characterID uuid.UUID) []VariableDeclaration {
	var decls []VariableDeclaration
	for _, d := range s.Declarations {
		if d.CharacterID == characterID {
			decls = append(decls, d)
		}
	}
	return decls
}

// InitialVars seeds a character's variable snapshot from declared
// initial values. Declarations without an initial value stay absent
// until an effect first touches them.
func (s *Story) InitialVars(characterID uuid.UUID) state.Vars {
	vars := state.Vars{}
	for _, d := range s.DeclarationsFor(characterID) {
		if d.Initial != nil {
			vars[d.Name] = d.Initial
		}
	}
	return vars
}
