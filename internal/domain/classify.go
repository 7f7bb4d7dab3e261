package domain

// Log group tokens, checked in this order.
const (
	LambdaLogGroupToken     = "/aws/lambda/"
	APIGatewayLogGroupToken = "API-Gateway-Execution-Logs"
)

// Strategy selects how a batch is parsed.
type Strategy int

const (
	StrategyUnsupported Strategy = iota
	StrategyLambda
	StrategyAPIGateway
)

func (s Strategy) String() string {
	switch s {
	case StrategyLambda:
		return "lambda"
	case StrategyAPIGateway:
		return "api_gateway"
	default:
		return "unsupported"
	}
}

// Classify picks the parsing strategy for a batch from its message type and
// log group.
func Classify(batch LogBatch) Strategy {
	if !batch.IsData() {
		return StrategyUnsupported
	}
	switch {
	case batch.LogGroup.StartsWith(LambdaLogGroupToken):
		return StrategyLambda
	case batch.LogGroup.StartsWith(APIGatewayLogGroupToken):
		return StrategyAPIGateway
	default:
		return StrategyUnsupported
	}
}
