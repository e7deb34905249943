package progression

import (
	"github.com/dumeirei/incentive-backend/internal/models"
)

// RequirementState 要求的当前进度
type RequirementState struct {
	Ordem       int             `json:"ordem"`
	Description string          `json:"description"`
	Unit        models.UnitKind `json:"unit"`
	Accumulated int             `json:"accumulated"`
	Target      int             `json:"target"`
	Complete    bool            `json:"complete"`
}

// CardState 卡片的当前进度
type CardState struct {
	Sequence     int                `json:"sequence"`
	Description  string             `json:"description"`
	Complete     bool               `json:"complete"`
	Requirements []RequirementState `json:"requirements"`
}

// Snapshot 供展示层使用的进度快照
type Snapshot struct {
	ActiveSequence int         `json:"active_sequence"`
	Exhausted      bool        `json:"exhausted"`
	LastSequence   int         `json:"last_sequence"` // 0 表示无上限
	Cards          []CardState `json:"cards"`
}

// Snapshot 生成进度快照，包含全部已产生进度的卡片以及当前卡片
func (t *Track) Snapshot() Snapshot {
	upto := t.ActiveSequence
	if m := t.maxSequence(); m > upto {
		upto = m
	}
	if t.Plan.Mode == models.CardModeManual {
		upto = t.Plan.LastSequence()
	}

	snap := Snapshot{
		ActiveSequence: t.ActiveSequence,
		Exhausted:      t.Exhausted,
		LastSequence:   t.Plan.LastSequence(),
		Cards:          make([]CardState, 0, upto),
	}
	for seq := 1; seq <= upto; seq++ {
		card, ok := t.Plan.Card(seq)
		if !ok {
			break
		}
		state := CardState{Sequence: seq, Description: card.Description, Complete: true}
		for _, req := range card.Requirements {
			acc := t.Accumulated(seq, req.Ordem)
			done := acc >= req.Quantity
			if !done {
				state.Complete = false
			}
			state.Requirements = append(state.Requirements, RequirementState{
				Ordem:       req.Ordem,
				Description: req.Description,
				Unit:        req.Unit,
				Accumulated: acc,
				Target:      req.Quantity,
				Complete:    done,
			})
		}
		snap.Cards = append(snap.Cards, state)
	}
	return snap
}
