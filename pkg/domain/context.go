package domain

// LocalContext is the closed projection of (logical state, mode) that drives input disambiguation.
type LocalContext string

const (
	ContextNormal                        LocalContext = "Normal"
	ContextTendering                     LocalContext = "Tendering"
	ContextProductInquiry                LocalContext = "ProductInquiry"
	ContextOrderReferenceInquiry         LocalContext = "OrderReferenceInquiry"
	ContextBalanceInquiry                LocalContext = "BalanceInquiry"
	ContextTransactionHistory            LocalContext = "TransactionHistory"
	ContextGiftCardIssue                 LocalContext = "GiftCardIssue"
	ContextGiftCertificateIssue          LocalContext = "GiftCertificateIssue"
	ContextSearchSuspendedTransactions   LocalContext = "SearchSuspendedTransactions"
	ContextAssignMember                  LocalContext = "AssignMember"
	ContextTillOperation                 LocalContext = "TillOperation"
	ContextPaidOperation                 LocalContext = "PaidOperation"
	ContextReceiptPrinterChoice          LocalContext = "ReceiptPrinterChoice"
	ContextReturnWithTransactionSearch   LocalContext = "ReturnWithTransactionSearch"
	ContextCustomerSearchScreen          LocalContext = "CustomerSearchScreen"
	ContextValueCertificateSearch        LocalContext = "ValueCertificateSearch"
	ContextSearchPostVoidableTransaction LocalContext = "SearchPostVoidableTransaction"
	ContextWaitingForInput               LocalContext = "WaitingForInput"
	ContextUnrecognized                  LocalContext = "Unrecognized"
)

// LocalContexts lists the full closed set.
var LocalContexts = []LocalContext{
	ContextNormal,
	ContextTendering,
	ContextProductInquiry,
	ContextOrderReferenceInquiry,
	ContextBalanceInquiry,
	ContextTransactionHistory,
	ContextGiftCardIssue,
	ContextGiftCertificateIssue,
	ContextSearchSuspendedTransactions,
	ContextAssignMember,
	ContextTillOperation,
	ContextPaidOperation,
	ContextReceiptPrinterChoice,
	ContextReturnWithTransactionSearch,
	ContextCustomerSearchScreen,
	ContextValueCertificateSearch,
	ContextSearchPostVoidableTransaction,
	ContextWaitingForInput,
	ContextUnrecognized,
}
