package testutil

import (
	"context"
	"fmt"
	"testing"

	"pennybid/database"
	"pennybid/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// CreateTestUser inserts a user together with a funded wallet
func CreateTestUser(t *testing.T, db *database.DB, email string, balance int64) *entities.User {
	t.Helper()

	user := &entities.User{Email: email, Name: "Test " + email, PasswordHash: "x"}
	err := db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		ctx := context.Background()
		if err := tx.QueryRow(ctx,
			`INSERT INTO users (email, name, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
			user.Email, user.Name, user.PasswordHash,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO wallets (user_id, balance, lifetime_deposit) VALUES ($1, $2, $2)`,
			user.ID, balance,
		)
		return err
	})
	require.NoError(t, err)

	return user
}

// DefaultAuctionParams returns listing parameters matching the production defaults
func DefaultAuctionParams(title string) entities.AuctionParams {
	return entities.AuctionParams{
		Title:             title,
		Category:          "electronics",
		RetailPrice:       100000,
		StartPrice:        0,
		MinPriceThreshold: 1000,
		BidIncrement:      50,
		BidCost:           50,
		ResetSeconds:      10,
	}
}

// CreateTestAuction builds a valid open auction that has not been stored yet
func CreateTestAuction(t *testing.T, n int) *entities.Auction {
	t.Helper()
	auction, err := entities.NewAuction(DefaultAuctionParams(fmt.Sprintf("Lot %d", n)))
	require.NoError(t, err)
	return auction
}
