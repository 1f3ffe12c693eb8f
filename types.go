package econt

import "strconv"

// Country is an Econt nomenclature country.
type Country struct {
	ID     int    `json:"id,omitempty"`
	Code2  string `json:"code2"`
	Code3  string `json:"code3"`
	Name   string `json:"name"`
	NameEn string `json:"nameEn"`
	IsEU   bool   `json:"isEU"`
}

var countryFields = []string{"code2", "code3", "name", "nameEn", "isEU"}

// Fields lists the fields usable in filter predicates.
func (Country) Fields() []string { return countryFields }

// Field returns the named field as a string.
func (c Country) Field(name string) string {
	switch name {
	case "code2":
		return c.Code2
	case "code3":
		return c.Code3
	case "name":
		return c.Name
	case "nameEn":
		return c.NameEn
	case "isEU":
		return strconv.FormatBool(c.IsEU)
	default:
		return ""
	}
}

// City is an Econt nomenclature city.
type City struct {
	ID           int     `json:"id"`
	Country      Country `json:"country"`
	PostCode     string  `json:"postCode"`
	Name         string  `json:"name"`
	NameEn       string  `json:"nameEn"`
	RegionName   string  `json:"regionName,omitempty"`
	RegionNameEn string  `json:"regionNameEn,omitempty"`
	PhoneCode    string  `json:"phoneCode,omitempty"`
}

var cityFields = []string{"id", "countryCode", "postCode", "name", "nameEn", "regionName"}

// Fields lists the fields usable in filter predicates.
func (City) Fields() []string { return cityFields }

// Field returns the named field as a string. "countryCode" is the
// three-letter code of the city's country.
func (c City) Field(name string) string {
	switch name {
	case "id":
		return strconv.Itoa(c.ID)
	case "countryCode":
		return c.Country.Code3
	case "postCode":
		return c.PostCode
	case "name":
		return c.Name
	case "nameEn":
		return c.NameEn
	case "regionName":
		return c.RegionName
	default:
		return ""
	}
}

// Address is a postal address as returned by the nomenclature service.
type Address struct {
	ID            int    `json:"id,omitempty"`
	City          City   `json:"city"`
	FullAddress   string `json:"fullAddress"`
	FullAddressEn string `json:"fullAddressEn,omitempty"`
	Quarter       string `json:"quarter,omitempty"`
	Street        string `json:"street,omitempty"`
	Num           string `json:"num,omitempty"`
	Other         string `json:"other,omitempty"`
	Zip           string `json:"zip,omitempty"`
}

// Office is an Econt office or automated parcel station.
type Office struct {
	ID       int      `json:"id"`
	Code     string   `json:"code"`
	IsMPS    bool     `json:"isMPS"`
	IsAPS    bool     `json:"isAPS"`
	Name     string   `json:"name"`
	NameEn   string   `json:"nameEn"`
	Phones   []string `json:"phones,omitempty"`
	Emails   []string `json:"emails,omitempty"`
	Address  Address  `json:"address"`
	Info     string   `json:"info,omitempty"`
	Currency string   `json:"currency,omitempty"`
	HubCode  string   `json:"hubCode,omitempty"`
	HubName  string   `json:"hubName,omitempty"`
}

var officeFields = []string{"id", "code", "name", "nameEn", "countryCode", "cityID", "cityName", "isAPS", "isMPS"}

// Fields lists the fields usable in filter predicates.
func (Office) Fields() []string { return officeFields }

// Field returns the named field as a string. "countryCode", "cityID" and
// "cityName" come from the office address.
func (o Office) Field(name string) string {
	switch name {
	case "id":
		return strconv.Itoa(o.ID)
	case "code":
		return o.Code
	case "name":
		return o.Name
	case "nameEn":
		return o.NameEn
	case "countryCode":
		return o.Address.City.Country.Code3
	case "cityID":
		return strconv.Itoa(o.Address.City.ID)
	case "cityName":
		return o.Address.City.Name
	case "isAPS":
		return strconv.FormatBool(o.IsAPS)
	case "isMPS":
		return strconv.FormatBool(o.IsMPS)
	default:
		return ""
	}
}

// Street is a street of a city.
type Street struct {
	ID     int    `json:"id"`
	CityID int    `json:"cityID"`
	Name   string `json:"name"`
	NameEn string `json:"nameEn"`
}

var streetFields = []string{"id", "cityID", "name", "nameEn"}

// Fields lists the fields usable in filter predicates.
func (Street) Fields() []string { return streetFields }

// Field returns the named field as a string.
func (s Street) Field(name string) string {
	switch name {
	case "id":
		return strconv.Itoa(s.ID)
	case "cityID":
		return strconv.Itoa(s.CityID)
	case "name":
		return s.Name
	case "nameEn":
		return s.NameEn
	default:
		return ""
	}
}

// CityQuery narrows a GetCities call. The zero value requests every city.
type CityQuery struct {
	CountryCode string `json:"countryCode,omitempty"`
}

// OfficeQuery narrows a GetOffices call. The zero value requests every office.
type OfficeQuery struct {
	CountryCode string `json:"countryCode,omitempty"`
	CityID      int    `json:"cityID,omitempty"`
	OfficeCode  string `json:"officeCode,omitempty"`
}

// ShipmentType is the kind of parcel being sent.
type ShipmentType string

const (
	ShipmentTypePack     ShipmentType = "PACK"
	ShipmentTypeDocument ShipmentType = "DOCUMENT"
	ShipmentTypePallet   ShipmentType = "PALLET"
	ShipmentTypeCargo    ShipmentType = "CARGO"
)

// LabelMode selects whether a label is created or only priced.
type LabelMode string

const (
	LabelModeCreate    LabelMode = "create"
	LabelModeCalculate LabelMode = "calculate"
)

// ClientProfile identifies a sender or receiver.
type ClientProfile struct {
	Name   string   `json:"name"`
	NameEn string   `json:"nameEn,omitempty"`
	Phones []string `json:"phones,omitempty"`
	Email  string   `json:"email,omitempty"`
}

// ShipmentAddress is a pickup or delivery address.
type ShipmentAddress struct {
	City    *City  `json:"city,omitempty"`
	Quarter string `json:"quarter,omitempty"`
	Street  string `json:"street,omitempty"`
	Num     string `json:"num,omitempty"`
	Other   string `json:"other,omitempty"`
	Zip     string `json:"zip,omitempty"`
}

// LabelServices are the additional services requested for a shipment.
type LabelServices struct {
	CDAmount        float64 `json:"cdAmount,omitempty"`
	CDType          string  `json:"cdType,omitempty"`
	CDCurrency      string  `json:"cdCurrency,omitempty"`
	SMSNotification bool    `json:"smsNotification,omitempty"`
	DeclaredValue   float64 `json:"declaredValueAmount,omitempty"`
}

// Label describes a shipment to create or price.
type Label struct {
	SenderClient        *ClientProfile   `json:"senderClient,omitempty"`
	SenderAddress       *ShipmentAddress `json:"senderAddress,omitempty"`
	SenderOfficeCode    string           `json:"senderOfficeCode,omitempty"`
	ReceiverClient      *ClientProfile   `json:"receiverClient,omitempty"`
	ReceiverAddress     *ShipmentAddress `json:"receiverAddress,omitempty"`
	ReceiverOfficeCode  string           `json:"receiverOfficeCode,omitempty"`
	PackCount           int              `json:"packCount"`
	ShipmentType        ShipmentType     `json:"shipmentType"`
	Weight              float64          `json:"weight"`
	ShipmentDescription string           `json:"shipmentDescription,omitempty"`
	OrderNumber         string           `json:"orderNumber,omitempty"`
	Services            *LabelServices   `json:"services,omitempty"`
	PaymentSenderMethod string           `json:"paymentSenderMethod,omitempty"`
}

// LabelResult is the outcome of a create or calculate call.
type LabelResult struct {
	ShipmentNumber    string  `json:"shipmentNumber,omitempty"`
	PDFURL            string  `json:"pdfURL,omitempty"`
	TotalPrice        float64 `json:"totalPrice"`
	Currency          string  `json:"currency"`
	SenderDueAmount   float64 `json:"senderDueAmount,omitempty"`
	ReceiverDueAmount float64 `json:"receiverDueAmount,omitempty"`
}

// Language selects between the Bulgarian and English texts of a record.
type Language string

const (
	LanguageBG Language = "bg"
	LanguageEN Language = "en"
)

// TrackingEvent is one step in a shipment's journey.
type TrackingEvent struct {
	DestinationType      string `json:"destinationType"`
	DestinationDetails   string `json:"destinationDetails,omitempty"`
	DestinationDetailsEn string `json:"destinationDetailsEn,omitempty"`
	OfficeName           string `json:"officeName,omitempty"`
	CityName             string `json:"cityName,omitempty"`
	CountryCode          string `json:"countryCode,omitempty"`
	Time                 string `json:"time"`
}

// ShipmentStatus is the tracking state of a shipment.
type ShipmentStatus struct {
	ShipmentNumber        string          `json:"shipmentNumber"`
	ShortDeliveryStatus   string          `json:"shortDeliveryStatus"`
	ShortDeliveryStatusEn string          `json:"shortDeliveryStatusEn"`
	ExpectedDeliveryDate  string          `json:"expectedDeliveryDate,omitempty"`
	TrackingEvents        []TrackingEvent `json:"trackingEvents"`
}

// Details returns the destination details in lang. English falls back to
// Bulgarian when Econt sent no translation.
func (e TrackingEvent) Details(lang Language) string {
	if lang == LanguageEN && e.DestinationDetailsEn != "" {
		return e.DestinationDetailsEn
	}
	return e.DestinationDetails
}

// Status returns the short delivery status in lang. English falls back to
// Bulgarian when Econt sent no translation.
func (s ShipmentStatus) Status(lang Language) string {
	if lang == LanguageEN && s.ShortDeliveryStatusEn != "" {
		return s.ShortDeliveryStatusEn
	}
	return s.ShortDeliveryStatus
}
