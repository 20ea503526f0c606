package clredis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldViews  = "views"
	fieldEmails = "emails"
	fieldBots   = "bots"
)

// Daily regroupe les compteurs d'une journée
type Daily struct {
	Date           string `json:"date"`
	Views          int64  `json:"views"`
	EmailsDetected int64  `json:"emailsDetected"`
	Bots           int64  `json:"bots"`
	UniqueIPs      int64  `json:"uniqueIps"`
}

// Counters compte les visites par jour dans Redis
type Counters struct {
	client     *redis.Client
	expiration time.Duration
}

func New(client *redis.Client) *Counters {
	return &Counters{
		client:     client,
		expiration: 31 * 24 * time.Hour,
	}
}

func dailyKey(day string) string {
	return "tracker:daily:" + day
}

func visitorsKey(day string) string {
	return "tracker:visitors:" + day
}

// Record incrémente les compteurs du jour en un seul pipeline
func (c *Counters) Record(ctx context.Context, day, ip string, emailDetected, bot bool) error {
	pipe := c.client.TxPipeline()
	key := dailyKey(day)
	pipe.HIncrBy(ctx, key, fieldViews, 1)
	if emailDetected {
		pipe.HIncrBy(ctx, key, fieldEmails, 1)
	}
	if bot {
		pipe.HIncrBy(ctx, key, fieldBots, 1)
	}
	pipe.Expire(ctx, key, c.expiration)
	pipe.SAdd(ctx, visitorsKey(day), ip)
	pipe.Expire(ctx, visitorsKey(day), c.expiration)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis counters: %w", err)
	}
	return nil
}

// Day lit les compteurs d'une journée, zéro si rien n'existe
func (c *Counters) Day(ctx context.Context, day string) (Daily, error) {
	daily := Daily{Date: day}

	values, err := c.client.HGetAll(ctx, dailyKey(day)).Result()
	if err != nil && err != redis.Nil {
		return daily, fmt.Errorf("redis daily: %w", err)
	}
	daily.Views = parseCount(values[fieldViews])
	daily.EmailsDetected = parseCount(values[fieldEmails])
	daily.Bots = parseCount(values[fieldBots])

	unique, err := c.client.SCard(ctx, visitorsKey(day)).Result()
	if err != nil && err != redis.Nil {
		return daily, fmt.Errorf("redis visitors: %w", err)
	}
	daily.UniqueIPs = unique
	return daily, nil
}

func (c *Counters) Close() error {
	return c.client.Close()
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
