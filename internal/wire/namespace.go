package wire

import (
	"fmt"
	"sort"
)

// MessageType describes one peer message: its symbolic name, its wire
// number, and the ordered list of field names it may carry.
//
// Field layouts here are schemas, not byte layouts. The harness only needs
// to name fields, construct them, and compare them; the exact BOLT byte
// layout of each message is the concern of the serialization boundary in
// message.go.
type MessageType struct {
	Name   string
	Number uint16
	Fields []string
}

// HasField reports whether the schema declares the given field name.
func (mt *MessageType) HasField(name string) bool {
	for _, f := range mt.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Namespace is a registry of message types, addressable by name or by wire
// number. A Namespace is immutable once handed to the engine; tests that
// need extra message types build their own via Register or the CUE
// compiler and pass it in.
type Namespace struct {
	byName   map[string]*MessageType
	byNumber map[uint16]*MessageType
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{
		byName:   make(map[string]*MessageType),
		byNumber: make(map[uint16]*MessageType),
	}
}

// Register adds a message type to the namespace.
// Returns an error if the name or wire number is already taken.
func (ns *Namespace) Register(mt MessageType) error {
	if mt.Name == "" {
		return fmt.Errorf("register message type: empty name")
	}
	if _, ok := ns.byName[mt.Name]; ok {
		return fmt.Errorf("register message type %q: name already registered", mt.Name)
	}
	if existing, ok := ns.byNumber[mt.Number]; ok {
		return fmt.Errorf("register message type %q: number %d already used by %q",
			mt.Name, mt.Number, existing.Name)
	}
	cp := mt
	cp.Fields = append([]string(nil), mt.Fields...)
	ns.byName[cp.Name] = &cp
	ns.byNumber[cp.Number] = &cp
	return nil
}

// ByName looks up a message type by symbolic name.
func (ns *Namespace) ByName(name string) (*MessageType, bool) {
	mt, ok := ns.byName[name]
	return mt, ok
}

// ByNumber looks up a message type by wire number.
func (ns *Namespace) ByNumber(num uint16) (*MessageType, bool) {
	mt, ok := ns.byNumber[num]
	return mt, ok
}

// Names returns all registered message names in sorted order.
// Used for diagnostics and validation output.
func (ns *Namespace) Names() []string {
	names := make([]string, 0, len(ns.byName))
	for n := range ns.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Peer returns a namespace containing the standard BOLT 1/2/7 peer
// messages. Each call returns a fresh namespace so callers can extend it
// without affecting others.
func Peer() *Namespace {
	ns := NewNamespace()
	for _, mt := range peerMessages {
		// Names and numbers in peerMessages are statically unique.
		if err := ns.Register(mt); err != nil {
			panic(fmt.Sprintf("wire: bad builtin namespace: %v", err))
		}
	}
	return ns
}

// peerMessages lists the built-in peer message schemas.
// Wire numbers follow the BOLT message type assignments.
var peerMessages = []MessageType{
	// BOLT 1: setup and control.
	{Name: "warning", Number: 1, Fields: []string{"channel_id", "data"}},
	{Name: "init", Number: 16, Fields: []string{"globalfeatures", "features"}},
	{Name: "error", Number: 17, Fields: []string{"channel_id", "data"}},
	{Name: "ping", Number: 18, Fields: []string{"num_pong_bytes", "ignored"}},
	{Name: "pong", Number: 19, Fields: []string{"ignored"}},

	// BOLT 2: channel establishment v1.
	{Name: "open_channel", Number: 32, Fields: []string{
		"chain_hash", "temporary_channel_id", "funding_satoshis", "push_msat",
		"dust_limit_satoshis", "max_htlc_value_in_flight_msat",
		"channel_reserve_satoshis", "htlc_minimum_msat", "feerate_per_kw",
		"to_self_delay", "max_accepted_htlcs", "funding_pubkey",
		"revocation_basepoint", "payment_basepoint", "delayed_payment_basepoint",
		"htlc_basepoint", "first_per_commitment_point", "channel_flags",
	}},
	{Name: "accept_channel", Number: 33, Fields: []string{
		"temporary_channel_id", "dust_limit_satoshis",
		"max_htlc_value_in_flight_msat", "channel_reserve_satoshis",
		"htlc_minimum_msat", "minimum_depth", "to_self_delay",
		"max_accepted_htlcs", "funding_pubkey", "revocation_basepoint",
		"payment_basepoint", "delayed_payment_basepoint", "htlc_basepoint",
		"first_per_commitment_point",
	}},
	{Name: "funding_created", Number: 34, Fields: []string{
		"temporary_channel_id", "funding_txid", "funding_output_index", "signature",
	}},
	{Name: "funding_signed", Number: 35, Fields: []string{"channel_id", "signature"}},
	{Name: "funding_locked", Number: 36, Fields: []string{"channel_id", "next_per_commitment_point"}},
	{Name: "shutdown", Number: 38, Fields: []string{"channel_id", "scriptpubkey"}},
	{Name: "closing_signed", Number: 39, Fields: []string{"channel_id", "fee_satoshis", "signature"}},

	// BOLT 2: channel establishment v2 (dual funding).
	{Name: "open_channel2", Number: 64, Fields: []string{
		"chain_hash", "temporary_channel_id", "funding_feerate_perkw",
		"commitment_feerate_perkw", "funding_satoshis", "dust_limit_satoshis",
		"max_htlc_value_in_flight_msat", "htlc_minimum_msat", "to_self_delay",
		"max_accepted_htlcs", "locktime", "funding_pubkey",
		"revocation_basepoint", "payment_basepoint", "delayed_payment_basepoint",
		"htlc_basepoint", "first_per_commitment_point", "channel_flags",
	}},
	{Name: "accept_channel2", Number: 65, Fields: []string{
		"temporary_channel_id", "funding_satoshis", "dust_limit_satoshis",
		"max_htlc_value_in_flight_msat", "htlc_minimum_msat", "minimum_depth",
		"to_self_delay", "max_accepted_htlcs", "funding_pubkey",
		"revocation_basepoint", "payment_basepoint", "delayed_payment_basepoint",
		"htlc_basepoint", "first_per_commitment_point",
	}},
	{Name: "tx_add_input", Number: 66, Fields: []string{
		"channel_id", "serial_id", "prevtx", "prevtx_vout", "sequence",
	}},
	{Name: "tx_add_output", Number: 67, Fields: []string{"channel_id", "serial_id", "sats", "script"}},
	{Name: "tx_remove_input", Number: 68, Fields: []string{"channel_id", "serial_id"}},
	{Name: "tx_remove_output", Number: 69, Fields: []string{"channel_id", "serial_id"}},
	{Name: "tx_complete", Number: 70, Fields: []string{"channel_id"}},
	{Name: "tx_signatures", Number: 71, Fields: []string{"channel_id", "txid", "witnesses"}},
	{Name: "tx_init_rbf", Number: 72, Fields: []string{"channel_id", "locktime", "feerate"}},
	{Name: "tx_ack_rbf", Number: 73, Fields: []string{"channel_id"}},
	{Name: "tx_abort", Number: 74, Fields: []string{"channel_id", "data"}},

	// BOLT 2: normal operation.
	{Name: "update_add_htlc", Number: 128, Fields: []string{
		"channel_id", "id", "amount_msat", "payment_hash", "cltv_expiry",
	}},
	{Name: "update_fulfill_htlc", Number: 130, Fields: []string{"channel_id", "id", "payment_preimage"}},
	{Name: "update_fail_htlc", Number: 131, Fields: []string{"channel_id", "id", "reason"}},
	{Name: "commitment_signed", Number: 132, Fields: []string{"channel_id", "signature", "num_htlcs"}},
	{Name: "revoke_and_ack", Number: 133, Fields: []string{
		"channel_id", "per_commitment_secret", "next_per_commitment_point",
	}},
	{Name: "update_fee", Number: 134, Fields: []string{"channel_id", "feerate_per_kw"}},
	{Name: "update_fail_malformed_htlc", Number: 135, Fields: []string{
		"channel_id", "id", "sha256_of_onion", "failure_code",
	}},
	{Name: "channel_reestablish", Number: 136, Fields: []string{
		"channel_id", "next_commitment_number", "next_revocation_number",
		"your_last_per_commitment_secret", "my_current_per_commitment_point",
	}},

	// BOLT 7: gossip and gossip queries.
	{Name: "channel_announcement", Number: 256, Fields: []string{
		"node_signature_1", "node_signature_2", "bitcoin_signature_1",
		"bitcoin_signature_2", "features", "chain_hash", "short_channel_id",
		"node_id_1", "node_id_2", "bitcoin_key_1", "bitcoin_key_2",
	}},
	{Name: "node_announcement", Number: 257, Fields: []string{
		"signature", "features", "timestamp", "node_id", "rgb_color", "alias", "addresses",
	}},
	{Name: "channel_update", Number: 258, Fields: []string{
		"signature", "chain_hash", "short_channel_id", "timestamp",
		"message_flags", "channel_flags", "cltv_expiry_delta",
		"htlc_minimum_msat", "fee_base_msat", "fee_proportional_millionths",
	}},
	{Name: "announcement_signatures", Number: 259, Fields: []string{
		"channel_id", "short_channel_id", "node_signature", "bitcoin_signature",
	}},
	{Name: "query_short_channel_ids", Number: 261, Fields: []string{"chain_hash", "encoded_short_ids"}},
	{Name: "reply_short_channel_ids_end", Number: 262, Fields: []string{"chain_hash", "full_information"}},
	{Name: "query_channel_range", Number: 263, Fields: []string{
		"chain_hash", "first_blocknum", "number_of_blocks",
	}},
	{Name: "reply_channel_range", Number: 264, Fields: []string{
		"chain_hash", "first_blocknum", "number_of_blocks", "full_information",
		"encoded_short_ids",
	}},
	{Name: "gossip_timestamp_filter", Number: 265, Fields: []string{
		"chain_hash", "first_timestamp", "timestamp_range",
	}},
}
