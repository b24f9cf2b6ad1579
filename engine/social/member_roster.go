package social

import (
	"github.com/petar/GoLLRB/llrb"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/proto"
)

type memberItem struct {
	summary proto.SocialCharacterSummary
}

func (mi memberItem) Less(than llrb.Item) bool {
	return mi.summary.ID < than.(memberItem).summary.ID
}

// memberRoster is an ordered set of character summaries keyed by character id
type memberRoster struct {
	tree *llrb.LLRB
}

func newMemberRoster() *memberRoster {
	return &memberRoster{
		tree: llrb.New(),
	}
}

func (mr *memberRoster) add(summary proto.SocialCharacterSummary) {
	mr.tree.ReplaceOrInsert(memberItem{summary: summary})
}

func (mr *memberRoster) remove(id common.CharacterID) bool {
	item := mr.tree.Delete(memberItem{summary: proto.SocialCharacterSummary{ID: id}})
	return item != nil
}

func (mr *memberRoster) get(id common.CharacterID) (proto.SocialCharacterSummary, bool) {
	item := mr.tree.Get(memberItem{summary: proto.SocialCharacterSummary{ID: id}})
	if item == nil {
		return proto.SocialCharacterSummary{}, false
	}
	return item.(memberItem).summary, true
}

func (mr *memberRoster) contains(id common.CharacterID) bool {
	return mr.tree.Has(memberItem{summary: proto.SocialCharacterSummary{ID: id}})
}

func (mr *memberRoster) count() int {
	return mr.tree.Len()
}

// list returns all member summaries in ascending character id order
func (mr *memberRoster) list() []proto.SocialCharacterSummary {
	members := make([]proto.SocialCharacterSummary, 0, mr.tree.Len())
	mr.forEach(func(summary proto.SocialCharacterSummary) bool {
		members = append(members, summary)
		return true
	})
	return members
}

func (mr *memberRoster) forEach(cb func(summary proto.SocialCharacterSummary) bool) {
	if mr.tree.Len() == 0 {
		return
	}
	mr.tree.AscendGreaterOrEqual(mr.tree.Min(), func(item llrb.Item) bool {
		return cb(item.(memberItem).summary)
	})
}
