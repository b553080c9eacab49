package domain

import (
	"context"
	"errors"

	"github.com/pollcraft/backend/internal/model"
	"github.com/pollcraft/backend/internal/repository"
	"github.com/pollcraft/backend/pkg/errorx"
	"github.com/pollcraft/backend/pkg/xcontext"
	"gorm.io/gorm"

	mathUtil "github.com/pkg/math"
)

type LedgerDomain interface {
	GetBalance(context.Context, *model.GetBalanceRequest) (*model.GetBalanceResponse, error)
	GetMyTransactions(context.Context, *model.GetMyTransactionsRequest) (*model.GetMyTransactionsResponse, error)
}

type ledgerDomain struct {
	ledgerRepo repository.LedgerRepository
}

func NewLedgerDomain(ledgerRepo repository.LedgerRepository) *ledgerDomain {
	return &ledgerDomain{ledgerRepo: ledgerRepo}
}

func (d *ledgerDomain) GetBalance(
	ctx context.Context, req *model.GetBalanceRequest,
) (*model.GetBalanceResponse, error) {
	balance, err := d.ledgerRepo.Balance(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get balance: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetBalanceResponse{Points: balance}, nil
}

func (d *ledgerDomain) GetMyTransactions(
	ctx context.Context, req *model.GetMyTransactionsRequest,
) (*model.GetMyTransactionsResponse, error) {
	apiCfg := xcontext.Configs(ctx).ApiServer
	if req.Limit == 0 {
		req.Limit = apiCfg.DefaultLimit
	}

	if req.Limit < 0 {
		return nil, errorx.New(errorx.BadRequest, "Limit must be positive")
	}

	if req.Limit > apiCfg.MaxLimit {
		return nil, errorx.New(errorx.BadRequest, "Exceed the maximum of limit (%d)", apiCfg.MaxLimit)
	}

	txs, err := d.ledgerRepo.GetByUserID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get transactions: %v", err)
		return nil, errorx.Unknown
	}

	if req.Offset > len(txs) {
		req.Offset = len(txs)
	}

	end := mathUtil.MinInt(req.Offset+req.Limit, len(txs))

	modelTxs := []model.LedgerTransaction{}
	for i := req.Offset; i < end; i++ {
		modelTxs = append(modelTxs, model.ConvertLedgerTransaction(&txs[i]))
	}

	return &model.GetMyTransactionsResponse{Transactions: modelTxs}, nil
}
