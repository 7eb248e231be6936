package event

import (
	"strconv"
	"strings"

	"github.com/lnconform/lnconform/internal/keys"
	"github.com/lnconform/lnconform/internal/wire"
)

// Resolvable is a message field value resolved at send time, not at
// construction time. That late binding is what lets a value observed
// mid-path (a stashed channel_id, a negotiated feature) parameterize a
// later send.
type Resolvable func(ctx *Context, r Runner) (string, error)

// Lit resolves to a fixed string.
func Lit(v string) Resolvable {
	return func(*Context, Runner) (string, error) { return v, nil }
}

// LitInt resolves to a fixed decimal number.
func LitInt(v uint64) Resolvable {
	return Lit(strconv.FormatUint(v, 10))
}

// Rcvd resolves to a field of a previously received message, as stashed
// by ExpectMsg under the field's own name. A "msgtype.field" form is
// accepted for readability; only the field part addresses the stash.
// Resolution fails the path if no such field was ever received.
func Rcvd(field string) Resolvable {
	key := field
	if i := strings.LastIndex(field, "."); i >= 0 {
		key = field[i+1:]
	}
	return func(ctx *Context, _ Runner) (string, error) {
		v, ok := ctx.Stash.Get(key)
		if !ok {
			return "", NewResolutionError("rcvd("+field+")", key)
		}
		return v, nil
	}
}

// LitFields wraps a map of literal field values as resolvables, for the
// common case of a fully literal message.
func LitFields(fields map[string]string) map[string]Resolvable {
	out := make(map[string]Resolvable, len(fields))
	for k, v := range fields {
		out[k] = Lit(v)
	}
	return out
}

// Msat converts satoshis to millisatoshis for msat-denominated fields.
func Msat(sats uint64) uint64 {
	return sats * 1000
}

// RemoteRevocationBasepoint resolves to the node's revocation basepoint.
func RemoteRevocationBasepoint() Resolvable {
	return func(_ *Context, r Runner) (string, error) {
		return r.KeySet().RevocationBasepoint()
	}
}

// RemotePaymentBasepoint resolves to the node's payment basepoint.
func RemotePaymentBasepoint() Resolvable {
	return func(_ *Context, r Runner) (string, error) {
		return r.KeySet().PaymentBasepoint()
	}
}

// RemoteDelayedPaymentBasepoint resolves to the node's delayed payment
// basepoint.
func RemoteDelayedPaymentBasepoint() Resolvable {
	return func(_ *Context, r Runner) (string, error) {
		return r.KeySet().DelayedPaymentBasepoint()
	}
}

// RemoteHTLCBasepoint resolves to the node's HTLC basepoint.
func RemoteHTLCBasepoint() Resolvable {
	return func(_ *Context, r Runner) (string, error) {
		return r.KeySet().HTLCBasepoint()
	}
}

// RemotePerCommitPoint resolves to the node's n'th per-commitment point.
func RemotePerCommitPoint(n uint64) Resolvable {
	return func(_ *Context, r Runner) (string, error) {
		return r.KeySet().PerCommitPoint(n)
	}
}

// RemotePerCommitSecret resolves to the node's n'th per-commitment secret.
func RemotePerCommitSecret(n uint64) Resolvable {
	return func(_ *Context, r Runner) (string, error) {
		return r.KeySet().PerCommitSecret(n)
	}
}

// RemoteFundingPubkey resolves to the public key of the node's funding
// key.
func RemoteFundingPubkey() Resolvable {
	return func(_ *Context, r Runner) (string, error) {
		return keys.Pubkey(r.NodeBitcoinKey())
	}
}

// RemoteFundingPrivkey resolves to the node's funding private key.
func RemoteFundingPrivkey() Resolvable {
	return func(_ *Context, r Runner) (string, error) {
		return keys.PrivkeyExpand(r.NodeBitcoinKey())
	}
}

// Negotiated resolves to "true" if every bit in included (and no bit in
// excluded) is set in both feature bitfields, which is how tests express
// "this branch only applies when the option was negotiated".
func Negotiated(a, b Resolvable, included, excluded []int) Resolvable {
	return func(ctx *Context, r Runner) (string, error) {
		af, err := a(ctx, r)
		if err != nil {
			return "", err
		}
		bf, err := b(ctx, r)
		if err != nil {
			return "", err
		}
		both := func(bit int) (bool, error) {
			inA, err := wire.HasBit(af, bit)
			if err != nil {
				return false, err
			}
			inB, err := wire.HasBit(bf, bit)
			if err != nil {
				return false, err
			}
			return inA && inB, nil
		}
		for _, bit := range included {
			ok, err := both(bit)
			if err != nil || !ok {
				return "false", err
			}
		}
		for _, bit := range excluded {
			ok, err := both(bit)
			if err != nil {
				return "false", err
			}
			if ok {
				return "false", nil
			}
		}
		return "true", nil
	}
}
