package progression

import (
	"sort"
	"time"
)

// Track 销售员在某活动中的进度状态
type Track struct {
	Plan           *Plan
	ActiveSequence int
	Exhausted      bool

	progress map[slot]int
}

// NewTrack 创建初始进度，从第 1 张卡片开始
func NewTrack(plan *Plan) *Track {
	return &Track{
		Plan:           plan,
		ActiveSequence: 1,
		progress:       make(map[slot]int),
	}
}

// Entry 单个卡片要求的累计数量
type Entry struct {
	Sequence    int `json:"sequence"`
	Ordem       int `json:"ordem"`
	Accumulated int `json:"accumulated"`
	Target      int `json:"target"`
}

// Restore 从持久化记录恢复累计数量
func (t *Track) Restore(entries []Entry) {
	for _, e := range entries {
		t.progress[slot{e.Sequence, e.Ordem}] = e.Accumulated
	}
}

// Accumulated 指定卡片指定 ordem 的累计数量
func (t *Track) Accumulated(seq, ordem int) int {
	return t.progress[slot{seq, ordem}]
}

// Entries 全部已有累计记录，按序号和 ordem 排序
func (t *Track) Entries() []Entry {
	entries := make([]Entry, 0, len(t.progress))
	for s, acc := range t.progress {
		target, _ := t.Plan.TargetFor(s.seq, s.ordem)
		entries = append(entries, Entry{Sequence: s.seq, Ordem: s.ordem, Accumulated: acc, Target: target})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Sequence != entries[j].Sequence {
			return entries[i].Sequence < entries[j].Sequence
		}
		return entries[i].Ordem < entries[j].Ordem
	})
	return entries
}

// maxSequence 已有累计记录的最大卡片序号
func (t *Track) maxSequence() int {
	max := 0
	for s := range t.progress {
		if s.seq > max {
			max = s.seq
		}
	}
	return max
}

// CardComplete 卡片的全部要求是否已达到目标
func (t *Track) CardComplete(seq int) bool {
	card, ok := t.Plan.Card(seq)
	if !ok {
		return false
	}
	for _, req := range card.Requirements {
		if t.Accumulated(seq, req.Ordem) < req.Quantity {
			return false
		}
	}
	return true
}

// Completion 卡片完成事件
type Completion struct {
	Sequence    int       `json:"sequence"`
	CompletedAt time.Time `json:"completed_at"`
}

// Advance 当前卡片完成时逐张推进，越过最后一张卡片时标记为已耗尽
func (t *Track) Advance(at time.Time) []Completion {
	var completions []Completion
	for !t.Exhausted && t.CardComplete(t.ActiveSequence) {
		completions = append(completions, Completion{Sequence: t.ActiveSequence, CompletedAt: at})

		last := t.Plan.LastSequence()
		if last > 0 && t.ActiveSequence >= last {
			t.Exhausted = true
			break
		}
		t.ActiveSequence++
	}
	return completions
}
