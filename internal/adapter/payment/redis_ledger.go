package payment

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/rqhall/cowchain-farm/internal/port"
)

const balanceKeyPrefix = "balance:"

// transferScript moves funds only when the source balance covers the
// amount, so a transfer can never partially apply.
var transferScript = redis.NewScript(`
local from = KEYS[1]
local to = KEYS[2]
local amount = tonumber(ARGV[1])

local balance = tonumber(redis.call('GET', from) or '0')
if balance < amount then
	return 0
end

redis.call('DECRBY', from, amount)
redis.call('INCRBY', to, amount)
return 1
`)

// RedisLedger keeps account balances in Redis and performs atomic
// transfers via a Lua script.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) Balance(ctx context.Context, account string) (int64, error) {
	balance, err := l.client.Get(ctx, balanceKeyPrefix+account).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (l *RedisLedger) Transfer(ctx context.Context, from, to string, amount int64) error {
	keys := []string{balanceKeyPrefix + from, balanceKeyPrefix + to}
	result, err := transferScript.Run(ctx, l.client, keys, amount).Int()
	if err != nil {
		return err
	}
	if result != 1 {
		return port.ErrInsufficientBalance
	}
	return nil
}

// SetBalance provisions an account, mainly for bootstrap and tests.
func (l *RedisLedger) SetBalance(ctx context.Context, account string, amount int64) error {
	return l.client.Set(ctx, balanceKeyPrefix+account, amount, 0).Err()
}
