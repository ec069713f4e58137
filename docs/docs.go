// Package docs 由 swag 工具生成，注册论坛搜索服务的 Swagger 文档。
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/search/_health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "服务健康检查",
                "responses": {
                    "200": {
                        "description": "服务存活",
                        "schema": {"type": "object", "additionalProperties": true}
                    }
                }
            }
        },
        "/api/v1/search/hot-terms": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "查询热门搜索词",
                "description": "返回计数最高的搜索词榜单。不带 day 参数时查询全量榜，带 day（格式 2006-01-02，UTC）时查询对应自然日的榜单。",
                "parameters": [
                    {"type": "integer", "default": 10, "description": "返回的搜索词数量", "name": "limit", "in": "query"},
                    {"type": "string", "description": "查询哪一天的榜单（UTC 日期，格式 2006-01-02）", "name": "day", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "查询成功", "schema": {"$ref": "#/definitions/models.SwaggerTopTermsResponse"}},
                    "400": {"description": "请求参数无效", "schema": {"$ref": "#/definitions/models.SwaggerErrorResponse"}},
                    "500": {"description": "查询失败", "schema": {"$ref": "#/definitions/models.SwaggerErrorResponse"}}
                }
            }
        },
        "/api/v1/search/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "执行论坛搜索",
                "description": "按搜索词与过滤条件搜索论坛帖子。searchOnly=true 时仅返回命中结果与分页，否则附带筛选器标签与面包屑等渲染数据。",
                "parameters": [
                    {"type": "string", "description": "搜索词", "name": "term", "in": "query"},
                    {"type": "string", "default": "titlesposts", "description": "搜索范围 (titles/titlesposts/posts/users/tags/categories/bookmarks)", "name": "in", "in": "query"},
                    {"type": "string", "default": "all", "description": "关键词组合方式 (all/any)", "name": "matchWords", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "按作者用户名过滤", "name": "by", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "按分类 ID 过滤", "name": "categories", "in": "query"},
                    {"type": "boolean", "description": "是否包含子分类", "name": "searchChildren", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "按标签过滤", "name": "hasTags", "in": "query"},
                    {"type": "integer", "description": "回复数阈值", "name": "repliesCount", "in": "query"},
                    {"type": "string", "description": "回复数过滤方向 (atleast/atmost)", "name": "repliesFilter", "in": "query"},
                    {"type": "string", "description": "时间范围（秒）", "name": "timeRange", "in": "query"},
                    {"type": "string", "description": "时间过滤方向 (newer/older)", "name": "timeFilter", "in": "query"},
                    {"type": "string", "description": "排序字段 (relevance/timestamp/replies)", "name": "sortBy", "in": "query"},
                    {"type": "string", "description": "排序方向 (asc/desc)", "name": "sortDirection", "in": "query"},
                    {"type": "integer", "default": 1, "description": "页码", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "每页条数", "name": "itemsPerPage", "in": "query"},
                    {"type": "boolean", "description": "仅返回搜索结果，不组装渲染数据", "name": "searchOnly", "in": "query"},
                    {"type": "boolean", "description": "请求是否来自发帖编辑器（此类请求不计入搜索统计）", "name": "composer", "in": "query"},
                    {"type": "string", "description": "用户 ID（网关注入，缺省按游客处理）", "name": "X-User-ID", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "搜索成功", "schema": {"$ref": "#/definitions/models.SwaggerSearchResponse"}},
                    "400": {"description": "请求参数无效", "schema": {"$ref": "#/definitions/models.SwaggerErrorResponse"}},
                    "403": {"description": "没有权限在该范围内搜索", "schema": {"$ref": "#/definitions/models.SwaggerErrorResponse"}},
                    "500": {"description": "搜索服务内部错误", "schema": {"$ref": "#/definitions/models.SwaggerErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.SwaggerSearchResponse": {"type": "object"},
        "models.SwaggerTopTermsResponse": {"type": "object"},
        "models.SwaggerErrorResponse": {"type": "object"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8084",
	BasePath:         "",
	Schemes:          []string{"http", "https"},
	Title:            "论坛搜索服务 API",
	Description:      "论坛搜索服务的 API 文档。提供帖子搜索、权限范围控制与热门搜索词统计，索引数据来自论坛内容服务的 Kafka 事件。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
