package gamedbrediscurrency

import (
	"fmt"
	"time"

	"github.com/garyburd/redigo/redis"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
	"github.com/irikarra/worldlink/engine/wlog"
)

const (
	keyPrefixGold = "gold"
	keyPrefixCash = "cash"
)

type redisCurrencyEngine struct {
	c redis.Conn
}

// OpenRedisCurrency opens redis as the account currency engine
func OpenRedisCurrency(url string, dbindex int) (gamedbcommon.CurrencyEngine, error) {
	wlog.Debugf("Connecting Redis ...")
	c, err := redis.DialURL(url, redis.DialConnectTimeout(time.Second*3))
	if err != nil {
		return nil, err
	}

	if dbindex >= 0 {
		if _, err := c.Do("SELECT", dbindex); err != nil {
			c.Close()
			return nil, err
		}
	}
	return &redisCurrencyEngine{c: c}, nil
}

func currencyKey(prefix string, userID common.UserID) string {
	return fmt.Sprintf("%s:%s", prefix, userID)
}

func (e *redisCurrencyEngine) get(prefix string, userID common.UserID) (int64, error) {
	balance, err := redis.Int64(e.c.Do("GET", currencyKey(prefix, userID)))
	if err == redis.ErrNil {
		// an account that was never credited has balance 0
		return 0, nil
	}
	return balance, err
}

func (e *redisCurrencyEngine) change(prefix string, userID common.UserID, delta int64) (int64, error) {
	return redis.Int64(e.c.Do("INCRBY", currencyKey(prefix, userID), delta))
}

func (e *redisCurrencyEngine) GetGold(userID common.UserID) (int64, error) {
	return e.get(keyPrefixGold, userID)
}

func (e *redisCurrencyEngine) ChangeGold(userID common.UserID, delta int64) (int64, error) {
	return e.change(keyPrefixGold, userID, delta)
}

func (e *redisCurrencyEngine) GetCash(userID common.UserID) (int64, error) {
	return e.get(keyPrefixCash, userID)
}

func (e *redisCurrencyEngine) ChangeCash(userID common.UserID, delta int64) (int64, error) {
	return e.change(keyPrefixCash, userID, delta)
}

func (e *redisCurrencyEngine) Close() {
	e.c.Close()
}
