package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/runger/rselect/internal/picker"
)

// DefaultGRPCMethod is the unary method called when GRPC.Method is empty.
const DefaultGRPCMethod = "/rselect.v1.ChoiceService/ListChoices"

// GRPC calls a unary method that takes google.protobuf.Empty and returns a
// google.protobuf.ListValue. Each list element is a string (a plain choice)
// or a struct with the same fields as a Record.
type GRPC struct {
	Target string
	Method string

	// DialOptions override the default insecure transport credentials.
	DialOptions []grpc.DialOption
}

// Compile-time check that GRPC implements picker.Source.
var _ picker.Source[string] = (*GRPC)(nil)

// NewGRPC creates a source calling method on target.
func NewGRPC(target, method string) *GRPC {
	return &GRPC{Target: target, Method: method}
}

// Fetch implements picker.Source. A connection is created per call since
// the source is fetched once per session.
func (g *GRPC) Fetch(ctx context.Context) ([]picker.Item[string], error) {
	opts := g.DialOptions
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(g.Target, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc source: connect %s: %w", g.Target, err)
	}
	defer conn.Close()

	method := g.Method
	if method == "" {
		method = DefaultGRPCMethod
	}

	var out structpb.ListValue
	if err := conn.Invoke(ctx, method, &emptypb.Empty{}, &out); err != nil {
		return nil, fmt.Errorf("grpc source: %s: %w", method, err)
	}

	records := make([]Record, 0, len(out.GetValues()))
	for i, v := range out.GetValues() {
		rec, err := valueRecord(v)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrInvalidRecord, i, err)
		}
		records = append(records, rec)
	}
	return Items(records), nil
}

// valueRecord converts one ListValue element to a Record.
func valueRecord(v *structpb.Value) (Record, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return Record{Value: k.StringValue}, nil
	case *structpb.Value_NumberValue:
		return Record{Value: strconv.FormatFloat(k.NumberValue, 'f', -1, 64)}, nil
	case *structpb.Value_StructValue:
		return structRecord(k.StructValue)
	default:
		return Record{}, errors.New("expected string, number or struct")
	}
}

func structRecord(s *structpb.Struct) (Record, error) {
	fields := s.GetFields()
	str := func(name string) string { return fields[name].GetStringValue() }

	rec := Record{Name: str("name"), Description: str("description")}
	rec.Separator, rec.SeparatorText = valueFlag(fields["separator"])
	rec.Disabled, rec.DisabledReason = valueFlag(fields["disabled"])

	switch v := fields["value"].GetKind().(type) {
	case *structpb.Value_StringValue:
		rec.Value = v.StringValue
	case *structpb.Value_NumberValue:
		rec.Value = strconv.FormatFloat(v.NumberValue, 'f', -1, 64)
	case nil:
		if !rec.Separator {
			return Record{}, errors.New("missing value")
		}
	default:
		return Record{}, errors.New("value must be a string or number")
	}
	return rec, nil
}

// valueFlag mirrors flagOrText for protobuf values.
func valueFlag(v *structpb.Value) (bool, string) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return k.BoolValue, ""
	case *structpb.Value_NumberValue:
		return k.NumberValue == 1, ""
	case *structpb.Value_StringValue:
		if s := strings.TrimSpace(k.StringValue); s != "" {
			return true, k.StringValue
		}
	}
	return false, ""
}
