package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/zvault/core/pkg/chain"
)

// rpcChainReader is a minimal JSON-RPC client for the boundary calls
// internal/indexer needs: fetching every Announcement account belonging
// to the program, and the CommitmentTree mirror account. The on-chain
// program's account model (PDAs, getProgramAccounts filters) is outside
// this module's scope — spec.md's non-goals exclude block-header relay
// and the on-chain program itself — so this talks to a generic Solana-
// style JSON-RPC endpoint using only the two methods the indexer needs,
// decoding with pkg/chain's wire-format decoders.
type rpcChainReader struct {
	endpoint  string
	programID string
	treePDA   string
	client    *http.Client
}

func newRPCChainReader(endpoint, programID, treePDA string) *rpcChainReader {
	return &rpcChainReader{
		endpoint:  endpoint,
		programID: programID,
		treePDA:   treePDA,
		client:    http.DefaultClient,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcAccountValue struct {
	Data [2]string `json:"data"` // [base64, "base64"]
}

type rpcProgramAccount struct {
	Pubkey  string          `json:"pubkey"`
	Account rpcAccountValue `json:"account"`
}

func (r *rpcChainReader) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("rpc: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("rpc: %s: decode: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc: %s: %s", method, envelope.Error.Message)
	}
	return json.Unmarshal(envelope.Result, out)
}

// FetchAnnouncements implements indexer.ChainReader.
func (r *rpcChainReader) FetchAnnouncements(ctx context.Context) ([]chain.AnnouncementRecord, error) {
	var accounts []rpcProgramAccount
	filter := map[string]interface{}{
		"encoding": "base64",
		"filters": []interface{}{
			map[string]interface{}{
				"memcmp": map[string]interface{}{
					"offset":   0,
					"bytes":    base64.StdEncoding.EncodeToString([]byte{chain.DiscriminatorAnnouncement}),
					"encoding": "base64",
				},
			},
		},
	}
	if err := r.call(ctx, "getProgramAccounts", []interface{}{r.programID, filter}, &accounts); err != nil {
		return nil, err
	}

	out := make([]chain.AnnouncementRecord, 0, len(accounts))
	for _, acc := range accounts {
		raw, err := base64.StdEncoding.DecodeString(acc.Account.Data[0])
		if err != nil || len(raw) != chain.AnnouncementRecordSize {
			continue
		}
		var buf [chain.AnnouncementRecordSize]byte
		copy(buf[:], raw)
		rec, err := chain.DecodeAnnouncement(buf)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// FetchCommitmentTreeAccount implements indexer.ChainReader.
func (r *rpcChainReader) FetchCommitmentTreeAccount(ctx context.Context) (chain.CommitmentTreeAccount, error) {
	var resp struct {
		Value rpcAccountValue `json:"value"`
	}
	if err := r.call(ctx, "getAccountInfo", []interface{}{r.treePDA, map[string]interface{}{"encoding": "base64"}}, &resp); err != nil {
		return chain.CommitmentTreeAccount{}, err
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return chain.CommitmentTreeAccount{}, fmt.Errorf("rpc: decode tree account: %w", err)
	}
	return chain.DecodeCommitmentTreeAccount(raw)
}
