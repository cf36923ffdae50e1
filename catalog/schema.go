// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package catalog

// Well-known identifiers of the configuration singletons.
const (
	GlobalID  = "global"
	LoggingID = "logging"
)

// Property names shared by several kinds.
const (
	PropName           = "name"
	PropWorkspace      = "workspace"
	PropNamespace      = "namespace"
	PropStore          = "store"
	PropResource       = "resource"
	PropEnabled        = "enabled"
	PropUpdateSequence = "updateSequence"
)

var (
	storeProps = []string{
		PropName, PropWorkspace, PropEnabled, "description", "type",
		"connectionParameters", "url", "disableOnConnFailure", "metadata",
	}
	resourceProps = []string{
		PropName, "nativeName", "title", "abstract", "keywords", PropNamespace,
		PropStore, "srs", "nativeSrs", "projectionPolicy", PropEnabled,
		"advertised", "metadata", "serviceConfiguration",
	}
	serviceProps = []string{
		PropName, PropWorkspace, PropEnabled, "title", "abstract", "maintainer",
		"onlineResource", "keywords", "versions", "citeCompliant",
		"outputStrategy", "schemaBaseURL", "verbose", "metadata",
	}
)

// schema lists the property names each kind accepts.
var schema = map[Kind]map[string]struct{}{
	Workspace:     set(PropName, "isolated", "dateCreated", "dateModified", "metadata"),
	Namespace:     set("prefix", "uri", "isolated", "metadata"),
	DataStore:     set(storeProps...),
	CoverageStore: set(storeProps...),
	WMSStore:      set(append([]string{"capabilitiesURL", "username", "maxConnections"}, storeProps...)...),
	WMTSStore:     set(append([]string{"capabilitiesURL", "username", "headerName", "headerValue"}, storeProps...)...),
	FeatureType:   set(append([]string{"maxFeatures", "numDecimals", "cqlFilter", "attributes"}, resourceProps...)...),
	Coverage:      set(append([]string{"nativeFormat", "dimensions", "interpolationMethods"}, resourceProps...)...),
	WMSLayer:      set(append([]string{"forcedRemoteStyle", "preferredFormat"}, resourceProps...)...),
	WMTSLayer:     set(resourceProps...),
	Layer: set(PropName, PropResource, "defaultStyle", "styles", PropEnabled, "advertised",
		"type", "path", "opaque", "queryable", "attribution", "metadata"),
	LayerGroup: set(PropName, PropWorkspace, "title", "abstract", "mode", "layers",
		"styles", "rootLayer", "enabled", "advertised", "metadata"),
	Style: set(PropName, PropWorkspace, "filename", "format", "formatVersion", "legend", "metadata"),
	Map:   set(PropName, "layers", PropEnabled),

	Service:     set(serviceProps...),
	WMSService:  set(append([]string{"watermark", "maxBuffer", "maxRequestMemory", "interpolation"}, serviceProps...)...),
	WFSService:  set(append([]string{"maxFeatures", "serviceLevel", "featureBounding", "hitsIgnoreMaxFeatures"}, serviceProps...)...),
	WCSService:  set(append([]string{"gmlPrefixing", "maxInputMemory", "maxOutputMemory", "subsamplingEnabled"}, serviceProps...)...),
	WMTSService: set(serviceProps...),
	Settings: set(PropWorkspace, "title", "charset", "numDecimals", "onlineResource",
		"proxyBaseUrl", "verbose", "verboseExceptions", "localWorkspaceIncludesPrefix", "contact"),
	Logging: set("level", "location", "stdOutLogging"),
	Global: set(PropUpdateSequence, "adminUsername", "featureTypeCacheSize",
		"globalServices", "xmlPostRequestLogBufferSize", "lockProviderName",
		"resourceErrorHandling", "useHeadersProxyURL", "settings"),
}

// HasProperty reports whether the kind accepts the given property name.
func HasProperty(kind Kind, name string) bool {
	props, ok := schema[kind]
	if !ok {
		return false
	}
	_, ok = props[name]
	return ok
}

func set(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		out[name] = struct{}{}
	}
	return out
}
