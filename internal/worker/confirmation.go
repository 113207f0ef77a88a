package worker

import (
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/mail"

	"github.com/shopspring/decimal"
)

// メールの日時はベトナム時間で出す
var mailLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}()

// 注文を確認メールの差し込みデータにする。明細は注文時点のスナップショット
func newOrderConfirmation(o model.Order) mail.OrderConfirmation {
	items := make([]mail.OrderConfirmationItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, mail.OrderConfirmationItem{
			Name:     it.ProductName,
			Quantity: it.Quantity,
			Price:    formatVND(it.ProductPrice),
		})
	}

	name := o.ShippingName
	if o.Customer != nil && o.Customer.FullName != "" {
		name = o.Customer.FullName
	}

	return mail.OrderConfirmation{
		CustomerName:    name,
		OrderID:         o.ID,
		OrderDate:       o.CreatedAt.In(mailLocation).Format("02/01/2006 15:04"),
		Items:           items,
		ShippingFee:     formatVND(model.ShippingFee),
		TotalPrice:      formatVND(o.TotalPrice),
		ShippingAddress: o.ShippingLine(),
		PaymentMethod:   o.PaymentMethod,
	}
}

// formatVND は 88000 -> "88.000 ₫"
func formatVND(d decimal.Decimal) string {
	s := d.Round(0).Abs().StringFixed(0)

	var b strings.Builder
	if d.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteString(" ₫")
	return b.String()
}
