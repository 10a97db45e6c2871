// Package webapi exposes a read-only JSON query surface over the tangle
// store: node_info, transaction_by_hash, transactions_by_hashes and
// transactions_by_bundle. No endpoint mutates tangle state; everything here
// reads through packages/model/tangle's lookup API only.
//
// Grounded on rajivshah3-hornet's plugins/webapi/tips.go: gin.Context
// handlers, mapstructure.Decode from a generic param map into a typed query
// struct, and an ErrorReturn{Error string} JSON error shape.
package webapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iotaledger/iota.go/guards"
	"github.com/mitchellh/mapstructure"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

// ErrorReturn is the JSON body returned for any non-2xx response.
type ErrorReturn struct {
	Error string `json:"error"`
}

// Server serves the read-only query surface over a single Tangle.
type Server struct {
	tangle *tangle.Tangle
	router *gin.Engine
}

// New builds a Server and registers its routes. The caller owns starting
// the returned *gin.Engine (via Run or http.Server); New does not bind a
// listener itself.
func New(t *tangle.Tangle) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{tangle: t, router: router}

	api := router.Group("/api/v1")
	api.GET("/info", s.nodeInfo)
	api.GET("/transactions/:hash", s.transactionByHash)
	api.GET("/transactions", s.transactionsByHashes)
	api.GET("/bundles/:bundleHash", s.transactionsByBundle)

	return s
}

// Router returns the underlying gin.Engine for serving or further
// middleware registration.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// NodeInfo is the node_info response body.
type NodeInfo struct {
	LastMilestoneIndex      uint32 `json:"lastMilestoneIndex"`
	LastSolidMilestoneIndex uint32 `json:"lastSolidMilestoneIndex"`
	SnapshotMilestoneIndex  uint32 `json:"snapshotMilestoneIndex"`
	TipsCount               int    `json:"tipsCount"`
}

func (s *Server) nodeInfo(c *gin.Context) {
	c.JSON(http.StatusOK, NodeInfo{
		LastMilestoneIndex:      uint32(s.tangle.LastMilestoneIndex()),
		LastSolidMilestoneIndex: uint32(s.tangle.LastSolidMilestoneIndex()),
		SnapshotMilestoneIndex:  uint32(s.tangle.SnapshotMilestoneIndex()),
		TipsCount:               s.tangle.NumTips(),
	})
}

// TransactionView is the JSON shape returned for a single transaction.
type TransactionView struct {
	Hash        string `json:"hash"`
	Trunk       string `json:"trunk"`
	Branch      string `json:"branch"`
	Address     string `json:"address"`
	Value       int64  `json:"value"`
	Bundle      string `json:"bundle"`
	Index       int    `json:"index"`
	LastIndex   int    `json:"lastIndex"`
	Timestamp   uint64 `json:"timestamp"`
	Solid       bool   `json:"solid"`
	Confirmed   bool   `json:"confirmed"`
	Conflicting bool   `json:"conflicting"`
}

func transactionView(hash hornet.Hash, tx *tangle.Transaction, meta *tangle.TransactionMetadata) TransactionView {
	v := TransactionView{
		Hash:      string(hash),
		Trunk:     string(tx.Trunk),
		Branch:    string(tx.Branch),
		Address:   string(tx.Address),
		Value:     tx.Value,
		Bundle:    string(tx.Bundle),
		Index:     tx.Index,
		LastIndex: tx.LastIndex,
		Timestamp: tx.Timestamp,
	}
	if meta != nil {
		v.Solid = meta.IsSolid()
		v.Confirmed = meta.IsConfirmed()
		v.Conflicting = meta.IsConflicting()
	}
	return v
}

type transactionByHashQuery struct {
	Hash string `mapstructure:"hash"`
}

func (s *Server) transactionByHash(c *gin.Context) {
	query := &transactionByHashQuery{}
	if err := mapstructure.Decode(ginParams(c), query); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorReturn{Error: err.Error()})
		return
	}

	if !guards.IsTransactionHash(query.Hash) {
		c.JSON(http.StatusBadRequest, ErrorReturn{Error: "invalid transaction hash"})
		return
	}

	hash := hornet.Hash(query.Hash)
	tx, ok := s.tangle.Get(hash)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorReturn{Error: "transaction not found"})
		return
	}
	meta, _ := s.tangle.GetMetadata(hash)
	c.JSON(http.StatusOK, transactionView(hash, tx, meta))
}

type transactionsByHashesQuery struct {
	Hashes string `mapstructure:"hashes"`
}

func (s *Server) transactionsByHashes(c *gin.Context) {
	query := &transactionsByHashesQuery{}
	if err := mapstructure.Decode(ginParams(c), query); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorReturn{Error: err.Error()})
		return
	}

	if strings.TrimSpace(query.Hashes) == "" {
		c.JSON(http.StatusBadRequest, ErrorReturn{Error: "hashes query parameter is required"})
		return
	}

	views := make([]TransactionView, 0)
	for _, h := range strings.Split(query.Hashes, ",") {
		if !guards.IsTransactionHash(h) {
			c.JSON(http.StatusBadRequest, ErrorReturn{Error: "invalid transaction hash: " + h})
			return
		}
		hash := hornet.Hash(h)
		tx, ok := s.tangle.Get(hash)
		if !ok {
			continue
		}
		meta, _ := s.tangle.GetMetadata(hash)
		views = append(views, transactionView(hash, tx, meta))
	}
	c.JSON(http.StatusOK, views)
}

type transactionsByBundleQuery struct {
	BundleHash string `mapstructure:"bundleHash"`
}

func (s *Server) transactionsByBundle(c *gin.Context) {
	query := &transactionsByBundleQuery{}
	if err := mapstructure.Decode(ginParams(c), query); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorReturn{Error: err.Error()})
		return
	}

	if !guards.IsTransactionHash(query.BundleHash) {
		c.JSON(http.StatusBadRequest, ErrorReturn{Error: "invalid bundle hash"})
		return
	}

	bundleHash := hornet.Hash(query.BundleHash)
	hashes := s.tangle.BundleTransactionHashes(bundleHash)
	if len(hashes) == 0 {
		c.JSON(http.StatusNotFound, ErrorReturn{Error: "unknown bundle"})
		return
	}

	views := make([]TransactionView, 0, len(hashes))
	for _, hash := range hashes {
		tx, ok := s.tangle.Get(hash)
		if !ok {
			continue
		}
		meta, _ := s.tangle.GetMetadata(hash)
		views = append(views, transactionView(hash, tx, meta))
	}
	c.JSON(http.StatusOK, views)
}

// ginParams flattens gin's path params and URL query values into the
// generic map mapstructure.Decode expects, matching tips.go's pattern of
// decoding an arbitrary parameter bag into a typed query struct.
func ginParams(c *gin.Context) map[string]interface{} {
	out := make(map[string]interface{})
	for _, p := range c.Params {
		out[p.Key] = p.Value
	}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}
