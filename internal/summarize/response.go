package summarize

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope returned to the invoker.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// ResponseBody is the JSON document carried in Response.Body.
type ResponseBody struct {
	Message    string `json:"message"`
	InputFile  string `json:"input_file,omitempty"`
	OutputFile string `json:"output_file,omitempty"`
	Error      string `json:"error,omitempty"`
}

const (
	messageSuccess = "Summary generated successfully"
	messageFailure = "Error processing file"
)

func successResponse(inputFile, outputFile string) Response {
	return newResponse(http.StatusOK, ResponseBody{
		Message:    messageSuccess,
		InputFile:  inputFile,
		OutputFile: outputFile,
	})
}

func errorResponse(err error) Response {
	return newResponse(http.StatusInternalServerError, ResponseBody{
		Message: messageFailure,
		Error:   err.Error(),
	})
}

func newResponse(status int, body ResponseBody) Response {
	// ResponseBody holds only strings; Marshal cannot fail.
	data, _ := json.Marshal(body)
	return Response{StatusCode: status, Body: string(data)}
}

// DecodeBody parses r.Body.
func (r Response) DecodeBody() (ResponseBody, error) {
	var body ResponseBody
	err := json.Unmarshal([]byte(r.Body), &body)
	return body, err
}
