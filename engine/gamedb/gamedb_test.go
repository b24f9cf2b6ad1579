package gamedb

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/gamedb/backend/memdb"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
	"github.com/irikarra/worldlink/engine/post"
)

func TestMain(m *testing.M) {
	SetEngine(gamedbmemdb.OpenMemDB())
	SetCurrencyEngine(gamedbmemdb.OpenMemCurrency())
	m.Run()
	Shutdown()
}

// waitDone pumps posted callbacks until the operation under test completes
func waitDone(t *testing.T, done *bool) {
	deadline := time.Now().Add(time.Second * 5)
	for !*done {
		post.Tick()
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for gamedb callback")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCharacterRoundTrip(t *testing.T) {
	done := false
	ReadCharacter("nosuch", func(data *gamedbcommon.CharacterData, err error) {
		assert.T(t, err != nil, "reading a missing character should fail")
		done = true
	})
	waitDone(t, &done)

	saved := &gamedbcommon.CharacterData{
		ID:             "char1",
		UserID:         "user1",
		Name:           "Irik",
		Level:          12,
		CurrentMapName: "plains",
		CurrentX:       10,
		CurrentZ:       -3,
	}
	done = false
	SaveCharacter(saved, func() { done = true })
	waitDone(t, &done)
	assert.T(t, saved.LastUpdate != 0, "save should touch the character")

	done = false
	SetCharacterParty("char1", 42, func() { done = true })
	waitDone(t, &done)

	done = false
	ReadCharacter("char1", func(data *gamedbcommon.CharacterData, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, "Irik", data.Name)
		assert.Equal(t, "plains", data.CurrentMapName)
		assert.Equal(t, common.PartyID(42), data.PartyID)
		done = true
	})
	waitDone(t, &done)
}

func TestPartyIDSequence(t *testing.T) {
	var first, second common.PartyID
	done := false
	NextPartyID(func(id common.PartyID, err error) {
		assert.Equal(t, nil, err)
		first = id
		done = true
	})
	waitDone(t, &done)

	done = false
	NextPartyID(func(id common.PartyID, err error) {
		assert.Equal(t, nil, err)
		second = id
		done = true
	})
	waitDone(t, &done)
	assert.T(t, second > first, "party ids should increase")
}

func TestMailbox(t *testing.T) {
	mail := &gamedbcommon.MailData{
		SenderID:   "sender",
		SenderName: "Postmaster",
		ReceiverID: "receiver",
		Title:      "welcome",
		Gold:       100,
	}
	done := false
	SendMail(mail, func() { done = true })
	waitDone(t, &done)
	assert.T(t, mail.ID != "", "send should assign a mail id")

	done = false
	ListMails("receiver", func(mails []*gamedbcommon.MailData, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, 1, len(mails))
		assert.Equal(t, "welcome", mails[0].Title)
		done = true
	})
	waitDone(t, &done)

	done = false
	ListMails("someone else", func(mails []*gamedbcommon.MailData, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, 0, len(mails))
		done = true
	})
	waitDone(t, &done)

	mail.IsClaimed = true
	done = false
	UpdateMail(mail, func() { done = true })
	waitDone(t, &done)

	done = false
	ListMails("receiver", func(mails []*gamedbcommon.MailData, err error) {
		assert.Equal(t, nil, err)
		assert.T(t, mails[0].IsClaimed, "claim flag should persist")
		done = true
	})
	waitDone(t, &done)

	done = false
	DeleteMail(mail.ID, func() { done = true })
	waitDone(t, &done)

	done = false
	ListMails("receiver", func(mails []*gamedbcommon.MailData, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, 0, len(mails))
		done = true
	})
	waitDone(t, &done)
}

func TestFriends(t *testing.T) {
	done := false
	AddFriend("me", "buddy1", func() { done = true })
	waitDone(t, &done)
	done = false
	AddFriend("me", "buddy2", func() { done = true })
	waitDone(t, &done)

	done = false
	ReadFriends("me", func(friends []common.CharacterID, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, 2, len(friends))
		done = true
	})
	waitDone(t, &done)

	done = false
	RemoveFriend("me", "buddy1", func() { done = true })
	waitDone(t, &done)

	done = false
	ReadFriends("me", func(friends []common.CharacterID, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, []common.CharacterID{"buddy2"}, friends)
		done = true
	})
	waitDone(t, &done)
}

func TestCurrency(t *testing.T) {
	done := false
	GetGold("user1", func(balance int64, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, int64(0), balance)
		done = true
	})
	waitDone(t, &done)

	done = false
	ChangeGold("user1", 100, func(balance int64, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, int64(100), balance)
		done = true
	})
	waitDone(t, &done)

	done = false
	ChangeGold("user1", -30, func(balance int64, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, int64(70), balance)
		done = true
	})
	waitDone(t, &done)

	done = false
	ChangeCash("user1", 5, func(balance int64, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, int64(5), balance)
		done = true
	})
	waitDone(t, &done)
}
