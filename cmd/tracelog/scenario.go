package main

import (
	"context"
	"fmt"
	"strings"

	tracelog "github.com/xgx-io/xgx-tracelog"
)

type order struct {
	ID     int
	Amount int
	Card   string
}

type amountError struct {
	OrderID int
	Amount  int
}

func (e *amountError) Error() string {
	return fmt.Sprintf("order %d: amount %d must be positive", e.OrderID, e.Amount)
}

func checkout(ctx context.Context, o order, crash bool) error {
	ctx, sc := tracelog.Enter(ctx, tracelog.Mask("card"))
	defer sc.Exit()
	sc.Set("order", o.ID).Set("card", o.Card)

	note := strings.Repeat("gift wrap, leave at the side door; ", 3)
	sc.Set("note", note)
	return charge(ctx, o, note, crash)
}

func charge(ctx context.Context, o order, note string, crash bool) error {
	ctx, sc := tracelog.Enter(ctx, tracelog.Expand("note"))
	defer sc.Exit()
	sc.Set("amount", o.Amount).Set("note", note)

	if err := audit(ctx, o); err != nil {
		return err
	}
	if crash {
		lines := []string{}
		sc.Set("lines", lines)
		_ = lines[o.ID]
	}
	return validate(ctx, o)
}

func audit(ctx context.Context, o order) error {
	_, sc := tracelog.Enter(ctx, tracelog.Hide())
	defer sc.Exit()
	sc.Set("id", o.ID)
	return nil
}

func validate(ctx context.Context, o order) error {
	ctx, sc := tracelog.Enter(ctx)
	defer sc.Exit()
	sc.Set("limit", 0).Set("amount", o.Amount)
	if o.Amount <= 0 {
		return tracelog.Capture(ctx, &amountError{OrderID: o.ID, Amount: o.Amount})
	}
	return nil
}
