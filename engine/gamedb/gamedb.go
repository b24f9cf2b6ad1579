package gamedb

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/config"
	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/gamedb/backend/mongodb"
	"github.com/irikarra/worldlink/engine/gamedb/backend/rediscurrency"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
	"github.com/irikarra/worldlink/engine/opmon"
	"github.com/irikarra/worldlink/engine/post"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/social"
	"github.com/irikarra/worldlink/engine/wlog"
)

// ErrNoCurrencyEngine is returned for gold/cash operations when no currency
// backend is configured
var ErrNoCurrencyEngine = errors.New("currency engine not configured")

var (
	gamedbEngine            gamedbcommon.Engine
	currencyEngine          gamedbcommon.CurrencyEngine
	operationQueue          = xnsyncutil.NewSyncQueue()
	gamedbRoutineTerminated = xnsyncutil.NewOneTimeCond()
)

// readRequest is a query executed once, errors are passed to the callback
type readRequest struct {
	name     string
	routine  func(engine gamedbcommon.Engine) (interface{}, error)
	callback func(res interface{}, err error)
}

// writeRequest is a mutation retried until the engine accepts it
type writeRequest struct {
	name     string
	routine  func(engine gamedbcommon.Engine) error
	callback func()
}

// currencyRequest is executed on the currency engine, never retried
type currencyRequest struct {
	name     string
	routine  func(engine gamedbcommon.CurrencyEngine) (int64, error)
	callback func(balance int64, err error)
}

// Initialize is called by the process service to initialize the gamedb module
func Initialize() {
	err := assureGameDBEngineReady()
	if err != nil {
		wlog.Fatalf("gamedb engine is not ready: %s", err)
	}

	cfg := config.GetGameDB()
	if cfg.CurrencyUrl != "" {
		dbindex, err := strconv.Atoi(cfg.CurrencyDB)
		if err != nil {
			dbindex = -1
		}
		currencyEngine, err = gamedbrediscurrency.OpenRedisCurrency(cfg.CurrencyUrl, dbindex)
		if err != nil {
			wlog.Fatalf("currency engine is not ready: %s", err)
		}
	}

	go gamedbRoutine()
}

// SetEngine injects the document engine directly, used by tests
func SetEngine(engine gamedbcommon.Engine) {
	gamedbEngine = engine
	go gamedbRoutine()
}

// SetCurrencyEngine injects the currency engine directly, used by tests
func SetCurrencyEngine(engine gamedbcommon.CurrencyEngine) {
	currencyEngine = engine
}

// Shutdown drains the operation queue and stops the gamedb routine
func Shutdown() {
	operationQueue.Close()
	gamedbRoutineTerminated.Wait()
}

func assureGameDBEngineReady() (err error) {
	if gamedbEngine != nil {
		return
	}

	cfg := config.GetGameDB()
	if cfg.Type == "mongodb" {
		gamedbEngine, err = gamedbmongodb.OpenMongoDB(cfg.Url, cfg.DB)
	} else {
		wlog.Panicf("unknown gamedb type: %s", cfg.Type)
	}

	return
}

var recentWarnedQueueLen = 0

func checkOperationQueueLen() {
	qlen := operationQueue.Len()
	if qlen > 100 && qlen%100 == 0 && recentWarnedQueueLen != qlen {
		wlog.Warnf("gamedb operation queue length = %d", qlen)
		recentWarnedQueueLen = qlen
	}
}

func pushRead(name string, routine func(engine gamedbcommon.Engine) (interface{}, error), callback func(res interface{}, err error)) {
	operationQueue.Push(readRequest{name: name, routine: routine, callback: callback})
	checkOperationQueueLen()
}

func pushWrite(name string, routine func(engine gamedbcommon.Engine) error, callback func()) {
	operationQueue.Push(writeRequest{name: name, routine: routine, callback: callback})
	checkOperationQueueLen()
}

func pushCurrency(name string, routine func(engine gamedbcommon.CurrencyEngine) (int64, error), callback func(balance int64, err error)) {
	operationQueue.Push(currencyRequest{name: name, routine: routine, callback: callback})
	checkOperationQueueLen()
}

func gamedbRoutine() {
	defer func() {
		err := recover()
		if err != nil {
			wlog.TraceError("gamedb routine paniced: %s, restarting ...", err)
			go gamedbRoutine() // restart the gamedb routine
		} else {
			// normal quit
			if gamedbEngine != nil {
				gamedbEngine.Close()
			}
			if currencyEngine != nil {
				currencyEngine.Close()
			}
			gamedbRoutineTerminated.Signal()
		}
	}()

	for {
		err := assureGameDBEngineReady()
		if err != nil {
			wlog.Errorf("gamedb engine is not ready: %s", err)
			time.Sleep(time.Second)
			continue
		}

		op := operationQueue.Pop()
		if op == nil { // queue closed
			break
		}

		if writeReq, ok := op.(writeRequest); ok {
			monop := opmon.StartOperation(writeReq.name)
			for {
				err := assureGameDBEngineReady()
				if err != nil {
					wlog.Errorf("gamedb engine is not ready: %s", err)
					time.Sleep(time.Second)
					continue
				}

				err = writeReq.routine(gamedbEngine)
				if err != nil {
					wlog.Errorf("gamedb: %s failed: %s", writeReq.name, err)
					if gamedbEngine.IsEOF(err) {
						gamedbEngine.Close()
						gamedbEngine = nil
					}
					continue // always retry writes until they land
				}

				monop.Finish(time.Millisecond * 100)
				if writeReq.callback != nil {
					post.Post(writeReq.callback)
				}
				break
			}
		} else if readReq, ok := op.(readRequest); ok {
			monop := opmon.StartOperation(readReq.name)
			res, err := readReq.routine(gamedbEngine)
			if err != nil && consts.DEBUG_SAVE_LOAD {
				wlog.Debugf("gamedb: %s failed: %s", readReq.name, err)
			}

			monop.Finish(time.Millisecond * 100)
			if readReq.callback != nil {
				post.Post(func() {
					readReq.callback(res, err)
				})
			}

			if err != nil && gamedbEngine.IsEOF(err) {
				gamedbEngine.Close()
				gamedbEngine = nil
			}
		} else if curReq, ok := op.(currencyRequest); ok {
			monop := opmon.StartOperation(curReq.name)
			var balance int64
			var err error
			if currencyEngine == nil {
				err = ErrNoCurrencyEngine
			} else {
				balance, err = curReq.routine(currencyEngine)
			}
			monop.Finish(time.Millisecond * 100)
			if curReq.callback != nil {
				post.Post(func() {
					curReq.callback(balance, err)
				})
			}
		} else {
			wlog.Panicf("gamedb: unknown operation: %v", op)
		}
	}
}

// ReadCharacter loads a character from the database
func ReadCharacter(id common.CharacterID, callback func(data *gamedbcommon.CharacterData, err error)) {
	pushRead("gamedb.readCharacter", func(engine gamedbcommon.Engine) (interface{}, error) {
		return engine.ReadCharacter(id)
	}, func(res interface{}, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(res.(*gamedbcommon.CharacterData), nil)
	})
}

// SaveCharacter persists a character, retried until it lands
func SaveCharacter(data *gamedbcommon.CharacterData, callback func()) {
	data.Touch()
	pushWrite("gamedb.saveCharacter", func(engine gamedbcommon.Engine) error {
		return engine.WriteCharacter(data)
	}, callback)
}

// DeleteCharacter removes a character from the database
func DeleteCharacter(id common.CharacterID, callback func()) {
	pushWrite("gamedb.deleteCharacter", func(engine gamedbcommon.Engine) error {
		return engine.DeleteCharacter(id)
	}, callback)
}

// SetCharacterParty persists the party membership of a character
func SetCharacterParty(id common.CharacterID, partyID common.PartyID, callback func()) {
	pushWrite("gamedb.setCharacterParty", func(engine gamedbcommon.Engine) error {
		return engine.SetCharacterParty(id, partyID)
	}, callback)
}

// SetCharacterGuild persists the guild membership of a character
func SetCharacterGuild(id common.CharacterID, guildID common.GuildID, role byte, callback func()) {
	pushWrite("gamedb.setCharacterGuild", func(engine gamedbcommon.Engine) error {
		return engine.SetCharacterGuild(id, guildID, role)
	}, callback)
}

// NextPartyID allocates a new party id
func NextPartyID(callback func(id common.PartyID, err error)) {
	pushRead("gamedb.nextPartyID", func(engine gamedbcommon.Engine) (interface{}, error) {
		return engine.NextPartyID()
	}, func(res interface{}, err error) {
		if err != nil {
			callback(0, err)
			return
		}
		callback(res.(common.PartyID), nil)
	})
}

// ReadParty loads a party record from the database
func ReadParty(id common.PartyID, callback func(rec *social.PartyRecord, err error)) {
	pushRead("gamedb.readParty", func(engine gamedbcommon.Engine) (interface{}, error) {
		return engine.ReadParty(id)
	}, func(res interface{}, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(res.(*social.PartyRecord), nil)
	})
}

// SaveParty persists a party record, retried until it lands
func SaveParty(rec *social.PartyRecord, callback func()) {
	pushWrite("gamedb.saveParty", func(engine gamedbcommon.Engine) error {
		return engine.WriteParty(rec)
	}, callback)
}

// DeleteParty removes a party from the database
func DeleteParty(id common.PartyID, callback func()) {
	pushWrite("gamedb.deleteParty", func(engine gamedbcommon.Engine) error {
		return engine.DeleteParty(id)
	}, callback)
}

// NextGuildID allocates a new guild id
func NextGuildID(callback func(id common.GuildID, err error)) {
	pushRead("gamedb.nextGuildID", func(engine gamedbcommon.Engine) (interface{}, error) {
		return engine.NextGuildID()
	}, func(res interface{}, err error) {
		if err != nil {
			callback(0, err)
			return
		}
		callback(res.(common.GuildID), nil)
	})
}

// FindGuildName counts guilds using the name
func FindGuildName(name string, callback func(count int, err error)) {
	pushRead("gamedb.findGuildName", func(engine gamedbcommon.Engine) (interface{}, error) {
		return engine.FindGuildName(name)
	}, func(res interface{}, err error) {
		if err != nil {
			callback(0, err)
			return
		}
		callback(res.(int), nil)
	})
}

// ReadGuild loads a guild record from the database
func ReadGuild(id common.GuildID, callback func(rec *social.GuildRecord, err error)) {
	pushRead("gamedb.readGuild", func(engine gamedbcommon.Engine) (interface{}, error) {
		return engine.ReadGuild(id)
	}, func(res interface{}, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(res.(*social.GuildRecord), nil)
	})
}

// SaveGuild persists a guild record, retried until it lands
func SaveGuild(rec *social.GuildRecord, callback func()) {
	pushWrite("gamedb.saveGuild", func(engine gamedbcommon.Engine) error {
		return engine.WriteGuild(rec)
	}, callback)
}

// DeleteGuild removes a guild from the database
func DeleteGuild(id common.GuildID, callback func()) {
	pushWrite("gamedb.deleteGuild", func(engine gamedbcommon.Engine) error {
		return engine.DeleteGuild(id)
	}, callback)
}

// ReadStorageItems loads the slot list of a storage
func ReadStorageItems(storageType proto.StorageType, ownerKey string, callback func(items []proto.StorageItem, err error)) {
	pushRead("gamedb.readStorageItems", func(engine gamedbcommon.Engine) (interface{}, error) {
		return engine.ReadStorageItems(storageType, ownerKey)
	}, func(res interface{}, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(res.([]proto.StorageItem), nil)
	})
}

// SaveStorageItems persists the slot list of a storage, retried until it lands
func SaveStorageItems(storageType proto.StorageType, ownerKey string, items []proto.StorageItem, callback func()) {
	pushWrite("gamedb.saveStorageItems", func(engine gamedbcommon.Engine) error {
		return engine.WriteStorageItems(storageType, ownerKey, items)
	}, callback)
}

// ReadBuildings loads all buildings of a map
func ReadBuildings(mapName string, callback func(buildings []*gamedbcommon.BuildingData, err error)) {
	pushRead("gamedb.readBuildings", func(engine gamedbcommon.Engine) (interface{}, error) {
		return engine.ReadBuildings(mapName)
	}, func(res interface{}, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(res.([]*gamedbcommon.BuildingData), nil)
	})
}

// SaveBuilding persists a building, retried until it lands
func SaveBuilding(data *gamedbcommon.BuildingData, callback func()) {
	pushWrite("gamedb.saveBuilding", func(engine gamedbcommon.Engine) error {
		return engine.WriteBuilding(data)
	}, callback)
}

// DeleteBuilding removes a building from the database
func DeleteBuilding(id common.BuildingID, callback func()) {
	pushWrite("gamedb.deleteBuilding", func(engine gamedbcommon.Engine) error {
		return engine.DeleteBuilding(id)
	}, callback)
}

// SendMail persists a new mail
func SendMail(data *gamedbcommon.MailData, callback func()) {
	pushWrite("gamedb.sendMail", func(engine gamedbcommon.Engine) error {
		return engine.WriteMail(data)
	}, callback)
}

// ListMails loads all mails of a receiver
func ListMails(receiverID common.UserID, callback func(mails []*gamedbcommon.MailData, err error)) {
	pushRead("gamedb.listMails", func(engine gamedbcommon.Engine) (interface{}, error) {
		return engine.ListMails(receiverID)
	}, func(res interface{}, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(res.([]*gamedbcommon.MailData), nil)
	})
}

// UpdateMail persists read/claim flags of a mail
func UpdateMail(data *gamedbcommon.MailData, callback func()) {
	pushWrite("gamedb.updateMail", func(engine gamedbcommon.Engine) error {
		return engine.UpdateMail(data)
	}, callback)
}

// DeleteMail removes a mail from the database
func DeleteMail(id common.MailID, callback func()) {
	pushWrite("gamedb.deleteMail", func(engine gamedbcommon.Engine) error {
		return engine.DeleteMail(id)
	}, callback)
}

// ReadFriends loads the friend list of a character
func ReadFriends(id common.CharacterID, callback func(friends []common.CharacterID, err error)) {
	pushRead("gamedb.readFriends", func(engine gamedbcommon.Engine) (interface{}, error) {
		return engine.ReadFriends(id)
	}, func(res interface{}, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(res.([]common.CharacterID), nil)
	})
}

// AddFriend persists a friend relation
func AddFriend(id common.CharacterID, friendID common.CharacterID, callback func()) {
	pushWrite("gamedb.addFriend", func(engine gamedbcommon.Engine) error {
		return engine.AddFriend(id, friendID)
	}, callback)
}

// RemoveFriend removes a friend relation
func RemoveFriend(id common.CharacterID, friendID common.CharacterID, callback func()) {
	pushWrite("gamedb.removeFriend", func(engine gamedbcommon.Engine) error {
		return engine.RemoveFriend(id, friendID)
	}, callback)
}

// GetGold reads the gold balance of an account
func GetGold(userID common.UserID, callback func(balance int64, err error)) {
	pushCurrency("gamedb.getGold", func(engine gamedbcommon.CurrencyEngine) (int64, error) {
		return engine.GetGold(userID)
	}, callback)
}

// ChangeGold adjusts the gold balance of an account
func ChangeGold(userID common.UserID, delta int64, callback func(balance int64, err error)) {
	pushCurrency("gamedb.changeGold", func(engine gamedbcommon.CurrencyEngine) (int64, error) {
		return engine.ChangeGold(userID, delta)
	}, callback)
}

// GetCash reads the cash balance of an account
func GetCash(userID common.UserID, callback func(balance int64, err error)) {
	pushCurrency("gamedb.getCash", func(engine gamedbcommon.CurrencyEngine) (int64, error) {
		return engine.GetCash(userID)
	}, callback)
}

// ChangeCash adjusts the cash balance of an account
func ChangeCash(userID common.UserID, delta int64, callback func(balance int64, err error)) {
	pushCurrency("gamedb.changeCash", func(engine gamedbcommon.CurrencyEngine) (int64, error) {
		return engine.ChangeCash(userID, delta)
	}, callback)
}
