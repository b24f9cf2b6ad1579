package entity

import (
	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/proto"
)

// SummaryTable is the roster of online characters as seen from presence
// broadcasts, indexed by id and by name for whisper routing
type SummaryTable struct {
	byID   map[common.CharacterID]*proto.SocialCharacterSummary
	byName map[string]common.CharacterID
}

// NewSummaryTable creates an empty roster
func NewSummaryTable() *SummaryTable {
	return &SummaryTable{
		byID:   map[common.CharacterID]*proto.SocialCharacterSummary{},
		byName: map[string]common.CharacterID{},
	}
}

// Put upserts a summary, keeping the name index consistent on rename
func (t *SummaryTable) Put(summary *proto.SocialCharacterSummary) {
	if old, ok := t.byID[summary.ID]; ok && old.Name != summary.Name {
		delete(t.byName, old.Name)
	}
	t.byID[summary.ID] = summary
	t.byName[summary.Name] = summary.ID
}

// Remove drops a character from the roster
func (t *SummaryTable) Remove(id common.CharacterID) {
	if summary, ok := t.byID[id]; ok {
		delete(t.byID, id)
		delete(t.byName, summary.Name)
	}
}

// Get returns the summary of an online character
func (t *SummaryTable) Get(id common.CharacterID) *proto.SocialCharacterSummary {
	return t.byID[id]
}

// GetByName resolves a character name to its summary
func (t *SummaryTable) GetByName(name string) *proto.SocialCharacterSummary {
	if id, ok := t.byName[name]; ok {
		return t.byID[id]
	}
	return nil
}

// Count returns the number of online characters
func (t *SummaryTable) Count() int {
	return len(t.byID)
}

// ForEach visits every online character summary
func (t *SummaryTable) ForEach(fn func(summary *proto.SocialCharacterSummary)) {
	for _, summary := range t.byID {
		fn(summary)
	}
}
