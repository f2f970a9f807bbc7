package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
	"github.com/shandysiswandi/sigil/internal/pkg/otp"
)

const accountColumns = `id, issuer, label, secret, algorithm, digits, period, type, folder, created_at, sort_order`

func scanAccount(row pgx.CollectableRow) (entity.Account, error) {
	var (
		acc entity.Account
		alg string
	)
	err := row.Scan(&acc.ID, &acc.Issuer, &acc.Label, &acc.Secret, &alg, &acc.Digits, &acc.Period,
		&acc.Type, &acc.Folder, &acc.Created, &acc.Order)
	acc.Algorithm = otp.Algorithm(alg)
	return acc, err
}

func (s *DB) List(ctx context.Context) (_ []entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "List")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT `+accountColumns+` FROM authenticator_accounts ORDER BY sort_order, created_at, id`)
	if err != nil {
		return nil, s.mapError(err)
	}

	accounts, err := pgx.CollectRows(rows, scanAccount)
	if err != nil {
		return nil, s.mapError(err)
	}

	return accounts, nil
}

func (s *DB) Get(ctx context.Context, id string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT `+accountColumns+` FROM authenticator_accounts WHERE id = $1`, id)
	if err != nil {
		return nil, s.mapError(err)
	}

	acc, err := pgx.CollectExactlyOneRow(rows, scanAccount)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &acc, nil
}

// Add inserts the draft with the next order number computed in the same
// statement.
func (s *DB) Add(ctx context.Context, draft entity.AccountDraft) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "Add")
	defer func() { s.endSpan(span, err) }()

	acc := entity.NewAccount(s.uuid.Generate(), s.clock.Now().UnixMilli(), 0, draft)

	err = s.conn.QueryRow(ctx, `
		INSERT INTO authenticator_accounts (`+accountColumns+`)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE(MAX(sort_order), 0) + 1
		FROM authenticator_accounts
		RETURNING sort_order`,
		acc.ID, acc.Issuer, acc.Label, acc.Secret, acc.Algorithm.String(), acc.Digits, acc.Period,
		acc.Type, acc.Folder, acc.Created,
	).Scan(&acc.Order)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &acc, nil
}

func (s *DB) Update(ctx context.Context, acc entity.Account) (err error) {
	ctx, span := s.startSpan(ctx, "Update")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE authenticator_accounts
		SET issuer = $2, label = $3, secret = $4, algorithm = $5, digits = $6, period = $7,
			type = $8, folder = $9, sort_order = $10
		WHERE id = $1`,
		acc.ID, acc.Issuer, acc.Label, acc.Secret, acc.Algorithm.String(), acc.Digits, acc.Period,
		acc.Type, acc.Folder, acc.Order,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM authenticator_accounts WHERE id = $1`, id)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) DeleteMany(ctx context.Context, ids []string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteMany")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM authenticator_accounts WHERE id = ANY($1)`, ids)
	return s.mapError(err)
}
