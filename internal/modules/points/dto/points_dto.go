package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"anoa.com/housecup/internal/entity"
	commonDto "anoa.com/housecup/pkg/dto"
)

type TransactionQuery struct {
	commonDto.PaginationQuery
	Reason string `form:"reason"`
}

type TransactionResponse struct {
	ID          uuid.UUID         `json:"id"`
	House       entity.House      `json:"house"`
	Points      int               `json:"points"`
	Reason      entity.Reason     `json:"reason"`
	Description *string           `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func NewTransactionResponse(tx entity.PointTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          tx.ID,
		House:       tx.House,
		Points:      tx.Points,
		Reason:      tx.Reason,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	}
	if len(tx.Metadata) > 0 {
		_ = json.Unmarshal(tx.Metadata, &resp.Metadata)
	}
	return resp
}

type PaginatedTransactionResponse struct {
	Data []TransactionResponse    `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
