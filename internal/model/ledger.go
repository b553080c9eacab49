package model

type LedgerTransaction struct {
	ID          int64  `json:"id"`
	CreatedAt   string `json:"created_at"`
	Delta       int64  `json:"delta"`
	Kind        string `json:"kind"`
	ReferenceID string `json:"reference_id"`
}

type GetBalanceRequest struct{}

type GetBalanceResponse struct {
	Points uint64 `json:"points"`
}

type GetMyTransactionsRequest struct {
	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetMyTransactionsResponse struct {
	Transactions []LedgerTransaction `json:"transactions"`
}
