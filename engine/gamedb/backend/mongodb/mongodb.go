package gamedbmongodb

import (
	"fmt"
	"io"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/social"
	"github.com/irikarra/worldlink/engine/uuid"
	"github.com/irikarra/worldlink/engine/wlog"
)

const (
	_DEFAULT_DB_NAME = "worldlink"
)

type mongoDBEngine struct {
	db *mgo.Database
}

// OpenMongoDB opens mongodb as the gamedb document engine
func OpenMongoDB(url string, dbname string) (gamedbcommon.Engine, error) {
	wlog.Debugf("Connecting MongoDB ...")
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, err
	}

	session.SetMode(mgo.Monotonic, true)
	if dbname == "" {
		// if db is not specified, use default
		dbname = _DEFAULT_DB_NAME
	}
	return &mongoDBEngine{
		db: session.DB(dbname),
	}, nil
}

type characterDoc struct {
	ID   string                     `bson:"_id"`
	Data gamedbcommon.CharacterData `bson:"data"`
}

func (e *mongoDBEngine) characters() *mgo.Collection {
	return e.db.C("characters")
}

func (e *mongoDBEngine) ReadCharacter(id common.CharacterID) (*gamedbcommon.CharacterData, error) {
	var doc characterDoc
	err := e.characters().FindId(string(id)).One(&doc)
	if err == mgo.ErrNotFound {
		return nil, gamedbcommon.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &doc.Data, nil
}

func (e *mongoDBEngine) WriteCharacter(data *gamedbcommon.CharacterData) error {
	_, err := e.characters().UpsertId(string(data.ID), characterDoc{
		ID:   string(data.ID),
		Data: *data,
	})
	return err
}

func (e *mongoDBEngine) DeleteCharacter(id common.CharacterID) error {
	err := e.characters().RemoveId(string(id))
	if err == mgo.ErrNotFound {
		return nil
	}
	return err
}

func (e *mongoDBEngine) SetCharacterParty(id common.CharacterID, partyID common.PartyID) error {
	err := e.characters().UpdateId(string(id), bson.M{
		"$set": bson.M{"data.partyid": partyID},
	})
	if err == mgo.ErrNotFound {
		return nil
	}
	return err
}

func (e *mongoDBEngine) SetCharacterGuild(id common.CharacterID, guildID common.GuildID, role byte) error {
	err := e.characters().UpdateId(string(id), bson.M{
		"$set": bson.M{"data.guildid": guildID, "data.guildrole": role},
	})
	if err == mgo.ErrNotFound {
		return nil
	}
	return err
}

func (e *mongoDBEngine) nextSeq(name string) (int32, error) {
	change := mgo.Change{
		Update:    bson.M{"$inc": bson.M{"seq": 1}},
		Upsert:    true,
		ReturnNew: true,
	}
	var doc struct {
		Seq int32 `bson:"seq"`
	}
	_, err := e.db.C("counters").FindId(name).Apply(change, &doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

func (e *mongoDBEngine) NextPartyID() (common.PartyID, error) {
	seq, err := e.nextSeq("party")
	return common.PartyID(seq), err
}

type partyDoc struct {
	ID   int32              `bson:"_id"`
	Data social.PartyRecord `bson:"data"`
}

func (e *mongoDBEngine) parties() *mgo.Collection {
	return e.db.C("parties")
}

func (e *mongoDBEngine) ReadParty(id common.PartyID) (*social.PartyRecord, error) {
	var doc partyDoc
	err := e.parties().FindId(int32(id)).One(&doc)
	if err == mgo.ErrNotFound {
		return nil, gamedbcommon.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &doc.Data, nil
}

func (e *mongoDBEngine) WriteParty(rec *social.PartyRecord) error {
	_, err := e.parties().UpsertId(int32(rec.ID), partyDoc{
		ID:   int32(rec.ID),
		Data: *rec,
	})
	return err
}

func (e *mongoDBEngine) DeleteParty(id common.PartyID) error {
	err := e.parties().RemoveId(int32(id))
	if err == mgo.ErrNotFound {
		return nil
	}
	return err
}

func (e *mongoDBEngine) NextGuildID() (common.GuildID, error) {
	seq, err := e.nextSeq("guild")
	return common.GuildID(seq), err
}

type guildDoc struct {
	ID   int32              `bson:"_id"`
	Name string             `bson:"name"`
	Data social.GuildRecord `bson:"data"`
}

func (e *mongoDBEngine) guilds() *mgo.Collection {
	return e.db.C("guilds")
}

func (e *mongoDBEngine) FindGuildName(name string) (int, error) {
	return e.guilds().Find(bson.M{"name": name}).Count()
}

func (e *mongoDBEngine) ReadGuild(id common.GuildID) (*social.GuildRecord, error) {
	var doc guildDoc
	err := e.guilds().FindId(int32(id)).One(&doc)
	if err == mgo.ErrNotFound {
		return nil, gamedbcommon.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &doc.Data, nil
}

func (e *mongoDBEngine) WriteGuild(rec *social.GuildRecord) error {
	_, err := e.guilds().UpsertId(int32(rec.ID), guildDoc{
		ID:   int32(rec.ID),
		Name: rec.Name,
		Data: *rec,
	})
	return err
}

func (e *mongoDBEngine) DeleteGuild(id common.GuildID) error {
	err := e.guilds().RemoveId(int32(id))
	if err == mgo.ErrNotFound {
		return nil
	}
	return err
}

type storageDoc struct {
	ID    string              `bson:"_id"`
	Items []proto.StorageItem `bson:"items"`
}

func storageDocID(storageType proto.StorageType, ownerKey string) string {
	return fmt.Sprintf("%d/%s", storageType, ownerKey)
}

func (e *mongoDBEngine) storages() *mgo.Collection {
	return e.db.C("storages")
}

func (e *mongoDBEngine) ReadStorageItems(storageType proto.StorageType, ownerKey string) ([]proto.StorageItem, error) {
	var doc storageDoc
	err := e.storages().FindId(storageDocID(storageType, ownerKey)).One(&doc)
	if err == mgo.ErrNotFound {
		// a storage that was never written is empty
		return []proto.StorageItem{}, nil
	} else if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

func (e *mongoDBEngine) WriteStorageItems(storageType proto.StorageType, ownerKey string, items []proto.StorageItem) error {
	id := storageDocID(storageType, ownerKey)
	_, err := e.storages().UpsertId(id, storageDoc{
		ID:    id,
		Items: items,
	})
	return err
}

type buildingDoc struct {
	ID      string                    `bson:"_id"`
	MapName string                    `bson:"mapname"`
	Data    gamedbcommon.BuildingData `bson:"data"`
}

func (e *mongoDBEngine) buildings() *mgo.Collection {
	return e.db.C("buildings")
}

func (e *mongoDBEngine) ReadBuildings(mapName string) ([]*gamedbcommon.BuildingData, error) {
	var docs []buildingDoc
	err := e.buildings().Find(bson.M{"mapname": mapName}).All(&docs)
	if err != nil {
		return nil, err
	}

	buildings := make([]*gamedbcommon.BuildingData, len(docs))
	for i := range docs {
		data := docs[i].Data
		buildings[i] = &data
	}
	return buildings, nil
}

func (e *mongoDBEngine) WriteBuilding(data *gamedbcommon.BuildingData) error {
	_, err := e.buildings().UpsertId(string(data.ID), buildingDoc{
		ID:      string(data.ID),
		MapName: data.MapName,
		Data:    *data,
	})
	return err
}

func (e *mongoDBEngine) DeleteBuilding(id common.BuildingID) error {
	err := e.buildings().RemoveId(string(id))
	if err == mgo.ErrNotFound {
		return nil
	}
	return err
}

type mailDoc struct {
	ID         string                `bson:"_id"`
	ReceiverID string                `bson:"receiverid"`
	Data       gamedbcommon.MailData `bson:"data"`
}

func (e *mongoDBEngine) mails() *mgo.Collection {
	return e.db.C("mails")
}

func (e *mongoDBEngine) WriteMail(data *gamedbcommon.MailData) error {
	if data.ID == "" {
		data.ID = common.MailID(uuid.GenUUID())
	}
	_, err := e.mails().UpsertId(string(data.ID), mailDoc{
		ID:         string(data.ID),
		ReceiverID: string(data.ReceiverID),
		Data:       *data,
	})
	return err
}

func (e *mongoDBEngine) ListMails(receiverID common.UserID) ([]*gamedbcommon.MailData, error) {
	var docs []mailDoc
	err := e.mails().Find(bson.M{"receiverid": string(receiverID)}).Sort("-data.sentat").All(&docs)
	if err != nil {
		return nil, err
	}

	mails := make([]*gamedbcommon.MailData, len(docs))
	for i := range docs {
		data := docs[i].Data
		mails[i] = &data
	}
	return mails, nil
}

func (e *mongoDBEngine) UpdateMail(data *gamedbcommon.MailData) error {
	return e.WriteMail(data)
}

func (e *mongoDBEngine) DeleteMail(id common.MailID) error {
	err := e.mails().RemoveId(string(id))
	if err == mgo.ErrNotFound {
		return nil
	}
	return err
}

type friendsDoc struct {
	ID      string   `bson:"_id"`
	Friends []string `bson:"friends"`
}

func (e *mongoDBEngine) friends() *mgo.Collection {
	return e.db.C("friends")
}

func (e *mongoDBEngine) ReadFriends(id common.CharacterID) ([]common.CharacterID, error) {
	var doc friendsDoc
	err := e.friends().FindId(string(id)).One(&doc)
	if err == mgo.ErrNotFound {
		return []common.CharacterID{}, nil
	} else if err != nil {
		return nil, err
	}

	friends := make([]common.CharacterID, len(doc.Friends))
	for i, friendID := range doc.Friends {
		friends[i] = common.CharacterID(friendID)
	}
	return friends, nil
}

func (e *mongoDBEngine) AddFriend(id common.CharacterID, friendID common.CharacterID) error {
	_, err := e.friends().UpsertId(string(id), bson.M{
		"$addToSet": bson.M{"friends": string(friendID)},
	})
	return err
}

func (e *mongoDBEngine) RemoveFriend(id common.CharacterID, friendID common.CharacterID) error {
	err := e.friends().UpdateId(string(id), bson.M{
		"$pull": bson.M{"friends": string(friendID)},
	})
	if err == mgo.ErrNotFound {
		return nil
	}
	return err
}

func (e *mongoDBEngine) IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

func (e *mongoDBEngine) Close() {
	e.db.Session.Close()
}
