package pgsql

import (
	portsrepo "github.com/chartermate/charter-ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the pgx-backed repositories onto a shared pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		EventRepo:   newPgxEventRepository(pool),
		JournalRepo: newPgxJournalRepository(pool),
	}
}
