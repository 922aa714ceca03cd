package quickbooks

type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

type EmailAddress struct {
	Address string `json:"Address"`
}

type Customer struct {
	ID               string        `json:"Id,omitempty"`
	SyncToken        string        `json:"SyncToken,omitempty"`
	DisplayName      string        `json:"DisplayName"`
	GivenName        string        `json:"GivenName,omitempty"`
	FamilyName       string        `json:"FamilyName,omitempty"`
	PrimaryEmailAddr *EmailAddress `json:"PrimaryEmailAddr,omitempty"`
}

type SalesItemLineDetail struct {
	ItemRef Ref `json:"ItemRef"`
}

type Line struct {
	Amount              float64              `json:"Amount"`
	Description         string               `json:"Description,omitempty"`
	DetailType          string               `json:"DetailType"`
	SalesItemLineDetail *SalesItemLineDetail `json:"SalesItemLineDetail,omitempty"`
}

type SalesReceipt struct {
	ID            string  `json:"Id,omitempty"`
	CustomerRef   Ref     `json:"CustomerRef"`
	TxnDate       string  `json:"TxnDate,omitempty"`
	PrivateNote   string  `json:"PrivateNote,omitempty"`
	PaymentRefNum string  `json:"PaymentRefNum,omitempty"`
	Line          []Line  `json:"Line"`
	TotalAmt      float64 `json:"TotalAmt,omitempty"`
}

type queryResponse struct {
	QueryResponse struct {
		Customer []Customer `json:"Customer"`
	} `json:"QueryResponse"`
}

type customerResponse struct {
	Customer Customer `json:"Customer"`
}

type salesReceiptResponse struct {
	SalesReceipt SalesReceipt `json:"SalesReceipt"`
}
