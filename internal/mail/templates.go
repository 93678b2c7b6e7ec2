package mail

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/farmstead/storefront/internal/models"
)

type orderEmailData struct {
	Order      *models.Order
	Date       string
	Items      []orderEmailItem
	Shipping   *models.ShippingDetail
	Total      string
	Tracking   string
	MethodLine string
}

type orderEmailItem struct {
	Quantity int
	Name     string
	Price    string
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h2>Thank you for your order from Farmstead!</h2>
<p><strong>Order ID:</strong> {{.Order.ID}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<h3>Items Ordered:</h3>
{{range .Items}}<p>{{.Quantity}} &times; {{.Name}} @ ${{.Price}}</p>
{{end}}<p><strong>Shipping:</strong> {{.MethodLine}}</p>
<p><strong>Total:</strong> ${{.Total}}</p>
<h3>Shipping Address:</h3>
<p>{{.Shipping.FullName}}<br>{{.Shipping.Street}}<br>{{.Shipping.City}}, {{.Shipping.State}} {{.Shipping.Zip}}</p>
<p><strong>Status:</strong> {{.Order.Status}}</p>
<hr />
<p>This is a confirmation of your purchase. You will receive another email when your order ships.</p>
`))

var shippedTmpl = template.Must(template.New("shipped").Parse(`
<h2>Your order has shipped from Farmstead!</h2>
<p><strong>Order ID:</strong> {{.Order.ID}}</p>
<p><strong>Date Shipped:</strong> {{.Date}}</p>
<h3>Items Shipped:</h3>
{{range .Items}}<p>{{.Quantity}} &times; {{.Name}} @ ${{.Price}}</p>
{{end}}<p><strong>Total:</strong> ${{.Total}}</p>
<h3>Shipping Address:</h3>
<p>{{.Shipping.FullName}}<br>{{.Shipping.Street}}<br>{{.Shipping.City}}, {{.Shipping.State}} {{.Shipping.Zip}}</p>
{{if .Tracking}}<p><strong>Tracking Number:</strong> {{.Tracking}}</p>
{{end}}<hr />
<p>This is a confirmation that your order has shipped. Thank you for shopping with us!</p>
`))

var contactTmpl = template.Must(template.New("contact").Parse(`
<h3>New Contact Form Message</h3>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))

func orderData(order *models.Order) orderEmailData {
	data := orderEmailData{
		Order:    order,
		Date:     time.Now().Format("1/2/2006 3:04 PM"),
		Shipping: order.Shipping,
		Tracking: order.TrackingNumber,
	}
	total := order.ShippingCost
	for _, line := range order.Lines {
		name := ""
		if line.Product != nil {
			name = line.Product.Name
		}
		data.Items = append(data.Items, orderEmailItem{
			Quantity: line.Quantity,
			Name:     name,
			Price:    fmt.Sprintf("%.2f", line.UnitPrice),
		})
		total += float64(line.Quantity) * line.UnitPrice
	}
	data.Total = fmt.Sprintf("%.2f", total)
	method := order.ShippingMethod
	if method == "" {
		method = "N/A"
	}
	data.MethodLine = fmt.Sprintf("%s – $%.2f", method, order.ShippingCost)
	return data
}

// OrderConfirmation renders the post-checkout email for a joined order record.
func OrderConfirmation(order *models.Order, to, replyTo, bcc string) (Message, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, orderData(order)); err != nil {
		return Message{}, fmt.Errorf("mail: render confirmation: %w", err)
	}
	return Message{
		To:      to,
		ReplyTo: replyTo,
		BCC:     bcc,
		Subject: fmt.Sprintf("Your Farmstead Order #%d", order.ID),
		HTML:    buf.String(),
	}, nil
}

// ShipmentNotice renders the one-time shipped email. The body reflects the
// order exactly as saved by the triggering update, tracking number included.
func ShipmentNotice(order *models.Order, to, replyTo, bcc string) (Message, error) {
	var buf bytes.Buffer
	if err := shippedTmpl.Execute(&buf, orderData(order)); err != nil {
		return Message{}, fmt.Errorf("mail: render shipment notice: %w", err)
	}
	return Message{
		To:      to,
		ReplyTo: replyTo,
		BCC:     bcc,
		Subject: fmt.Sprintf("Your Farmstead Order #%d Has Shipped!", order.ID),
		HTML:    buf.String(),
	}, nil
}

// ContactRelay forwards a contact-form submission to the business inbox.
func ContactRelay(name, email, message, inbox string) (Message, error) {
	var buf bytes.Buffer
	data := struct{ Name, Email, Message string }{name, email, message}
	if err := contactTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("mail: render contact relay: %w", err)
	}
	return Message{
		To:      inbox,
		ReplyTo: email,
		Subject: fmt.Sprintf("New Contact Message from %s", name),
		HTML:    buf.String(),
	}, nil
}
