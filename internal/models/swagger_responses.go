package models

// SwaggerSearchResponse 是专门为 Swagger 文档生成的辅助结构体。
// 它解决了 swag 工具无法解析泛型 response.APIResponse[SearchResponse] 的问题；
// 实际响应仍使用 gateway/pkg/response 的泛型封装。
type SwaggerSearchResponse struct {
	Code    int            `json:"code"`           // 业务状态码，0 代表成功。
	Message string         `json:"message"`        // 操作结果的文字描述。
	Data    SearchResponse `json:"data,omitempty"` // 搜索结果数据负载。
}

// SwaggerRenderDataResponse 对应非 searchOnly 模式下的渲染数据响应。
type SwaggerRenderDataResponse struct {
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Data    SearchRenderData `json:"data,omitempty"`
}

// SwaggerTopTermsResponse 对应热门搜索词接口的响应。
type SwaggerTopTermsResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    []TopSearchTerm `json:"data,omitempty"`
}

// SwaggerErrorResponse 表示统一的错误响应结构。
type SwaggerErrorResponse struct {
	Code    int         `json:"code"`           // 业务错误码。
	Message string      `json:"message"`        // 错误的文字描述。
	Data    interface{} `json:"data,omitempty"` // 错误响应通常不含业务数据。
}
