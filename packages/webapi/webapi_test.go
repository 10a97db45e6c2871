package webapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

func trytes(prefix byte) string {
	return strings.Repeat(string(prefix), 81)
}

func seedTangle(t *testing.T) (*tangle.Tangle, hornet.Hash) {
	tg := tangle.New()
	tail := hornet.Hash(trytes('A'))
	tx := &tangle.Transaction{
		Hash:      tail,
		Trunk:     hornet.NullHash,
		Branch:    hornet.NullHash,
		Address:   hornet.Hash(trytes('B')),
		Value:     42,
		Bundle:    hornet.Hash(trytes('C')),
		Index:     0,
		LastIndex: 0,
		Timestamp: 1000,
	}
	require.True(t, tg.Insert(tx, tail))
	return tg, tail
}

func TestNodeInfo(t *testing.T) {
	tg, _ := seedTangle(t)
	tg.UpdateLastMilestoneIndex(5)
	srv := New(tg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var info NodeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, uint32(5), info.LastMilestoneIndex)
	assert.Equal(t, 1, info.TipsCount)
}

func TestTransactionByHash(t *testing.T) {
	tg, tail := seedTangle(t)
	srv := New(tg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+string(tail), nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view TransactionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, string(tail), view.Hash)
	assert.Equal(t, int64(42), view.Value)
}

func TestTransactionByHashInvalid(t *testing.T) {
	tg, _ := seedTangle(t)
	srv := New(tg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/not-a-hash", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionByHashNotFound(t *testing.T) {
	tg, _ := seedTangle(t)
	srv := New(tg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+trytes('Z'), nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionsByBundle(t *testing.T) {
	tg, tail := seedTangle(t)
	srv := New(tg)

	tx, _ := tg.Get(tail)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bundles/"+string(tx.Bundle), nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var views []TransactionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, string(tail), views[0].Hash)
}
